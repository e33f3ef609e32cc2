package server

import (
	"net/http"
	"time"

	"chatrelay/internal/config"
	"chatrelay/internal/metrics"
	"chatrelay/internal/mw"
	"chatrelay/internal/relay"
	"chatrelay/internal/service"
	"chatrelay/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
// userSvc 为 nil 时（未配置数据库）不挂载账号接口。
func SetupRouter(cfg config.Config, engine *relay.Engine, userSvc *service.UserService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))
	r.Use(mw.CORS(cfg.Env))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewHandler(engine, userSvc, cfg)

	api := r.Group("/api/v1")
	api.POST("/send", h.Send)
	api.GET("/receive", h.Receive)
	api.GET("/rooms/:room/online", h.Online)

	if userSvc != nil {
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/refresh", h.RefreshToken)
	}

	r.GET("/ws", ws.Serve(engine))
	return r
}
