package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chatrelay/internal/metrics"
	"chatrelay/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 是一条 WebSocket 连接在中继核心眼中的句柄，实现 relay.Conn。
// 出站事件经带缓冲的 send 通道由 writePump 串行写出。
// mu 保护 closed 与 send 的关闭：广播方可能在断开清理的同时仍持有
// 从目录解析出的本连接并调用 Deliver，必须与 close(send) 互斥。
type Client struct {
	engine *relay.Engine
	conn   *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// inboundEvent 是入站帧的统一外壳。
type inboundEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// eventPayload 聚合所有入站事件可能携带的字段，缺失字段取零值而非报错。
type eventPayload struct {
	Token string `json:"token"`
	Room  string `json:"room"`
	User  string `json:"user"`
	Text  string `json:"text"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Deliver 实现 relay.Conn。慢消费者的缓冲满时丢弃该事件，
// 绝不让投递阻塞核心的事件处理路径；连接关闭后的投递同样丢弃。
func (c *Client) Deliver(e relay.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		log.Warn().Str("event", e.Name).Msg("ws send buffer full, dropping event")
	}
}

// shutdown 标记连接已关闭并释放发送通道，幂等。
func (c *Client) shutdown() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// Serve 返回 /ws 的 gin handler：升级连接并启动读写泵。
func Serve(engine *relay.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{engine: engine, conn: conn, send: make(chan []byte, 256)}
		metrics.WsConnections.Inc()

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.engine.Disconnect(c)
		c.shutdown()
		_ = c.conn.Close()
		metrics.WsConnections.Dec()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.dispatch(data) {
			return
		}
	}
}

// dispatch 解析一帧入站事件并分发到引擎。
// 返回 false 表示连接应当被关闭（认证失败）。
func (c *Client) dispatch(data []byte) bool {
	var in inboundEvent
	if err := json.Unmarshal(data, &in); err != nil {
		return true
	}
	var p eventPayload
	if len(in.Payload) > 0 {
		_ = json.Unmarshal(in.Payload, &p)
	}
	switch in.Event {
	case relay.EvAuth:
		// invalid credential: close the connection per protocol
		return c.engine.Auth(c, p.Token)
	case relay.EvJoinRoom:
		c.engine.Join(c, p.Room, p.User)
	case relay.EvLeaveRoom:
		c.engine.Leave(c, p.Room, p.User)
	case relay.EvRequestHistory:
		c.engine.RequestHistory(c, p.Room)
	case relay.EvSendMessage:
		c.engine.SendMessage(c, p.Room, p.User, p.Text)
	case relay.EvPingUser:
		c.engine.PingUser(c, p.From, p.To)
	case relay.EvOnlineRequest:
		c.engine.OnlineUsers(c, p.Room)
	default:
		// unknown events are ignored, not failures
	}
	return true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
