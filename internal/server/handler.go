package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatrelay/internal/config"
	"chatrelay/internal/relay"
	"chatrelay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入中继引擎与账号服务。
// userSvc 为 nil 时账号接口不会被挂载。
type Handler struct {
	engine  *relay.Engine
	userSvc *service.UserService
	cfg     config.Config
}

func NewHandler(engine *relay.Engine, userSvc *service.UserService, cfg config.Config) *Handler {
	return &Handler{engine: engine, userSvc: userSvc, cfg: cfg}
}

// Send 处理消息提交。缺失字段按协议取默认值，不视为错误。
func (h *Handler) Send(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
		Room string `json:"room"`
		User string `json:"user"`
	}
	// 载荷缺失或非法时按空字段处理，由引擎回落到默认值
	_ = c.ShouldBindJSON(&req)
	msg := h.engine.Submit(req.Room, req.User, req.Text)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "room": msg.Room})
}

// Receive 返回房间历史快照。wait=1 时长轮询：阻塞至出现新消息
// 或到达有界等待上限，然后无条件返回当前快照。
func (h *Handler) Receive(c *gin.Context) {
	room := c.DefaultQuery("room", relay.DefaultRoom)
	if c.Query("wait") == "1" {
		since := h.engine.HistoryVersion(room)
		if v := c.Query("since"); v != "" {
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				since = parsed
			}
		}
		timeout := time.Duration(h.cfg.ReceiveWaitSeconds) * time.Second
		msgs := h.engine.WaitSnapshot(room, since, timeout)
		c.JSON(http.StatusOK, gin.H{"room": room, "version": h.engine.HistoryVersion(room), "messages": msgs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "version": h.engine.HistoryVersion(room), "messages": h.engine.Snapshot(room)})
}

// Online 返回房间当前在线名单。
func (h *Handler) Online(c *gin.Context) {
	room := c.Param("room")
	c.JSON(http.StatusOK, gin.H{"room": room, "users": h.engine.OnlineSnapshot(room)})
}

// Register 处理用户注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.Username) < 2 || len(req.Username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	result, err := h.userSvc.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": result.ID, "username": result.Username})
}

// Login 处理用户登录请求，签发可用于 ws 认证的访问 token。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          gin.H{"id": result.User.ID, "username": result.User.Username},
	})
}

// RefreshToken 处理 token 刷新请求。
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.RefreshTokens(req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": result.AccessToken, "refresh_token": result.RefreshToken})
}
