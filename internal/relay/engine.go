package relay

import (
	"time"

	"chatrelay/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Engine 是中继核心：校验入站事件、独占四个状态存储的写入、
// 决定投递集合（单连接、房间广播或不投递）并发出出站事件。
// 传输层只提交事件并接收投递，从不直接改写状态。
type Engine struct {
	registry  *Registry
	presence  *Presence
	history   *History
	directory *Directory
}

func NewEngine(reg *Registry, pres *Presence, hist *History, dir *Directory) *Engine {
	return &Engine{registry: reg, presence: pres, history: hist, directory: dir}
}

// Auth 校验凭证。成功时向调用方回送 auth_ok 并返回 true；
// 失败时返回 false，由传输层关闭连接，状态不变。
func (e *Engine) Auth(c Conn, token string) bool {
	if !e.registry.Authenticate(c, token) {
		log.Warn().Msg("auth rejected")
		return false
	}
	c.Deliver(Event{Name: EvAuthOK})
	return true
}

// Join 绑定身份与连接、标记房间在线，并向房间广播 SYSTEM 加入消息。
func (e *Engine) Join(c Conn, room, user string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	e.directory.Bind(user, c)
	e.presence.MarkOnline(room, user)
	msg := systemJoined(room, user)
	trimmed := e.history.Append(room, msg)
	e.broadcast(room, msg, trimmed)
	log.Debug().Str("room", room).Str("user", user).Msg("join")
}

// Leave 标记房间离线并广播 SYSTEM 离开消息。
// 即使该身份当前不在房间在线集合中也会照常追加并广播（与参考行为一致）。
func (e *Engine) Leave(c Conn, room, user string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	e.presence.MarkOffline(room, user)
	msg := systemLeft(room, user)
	trimmed := e.history.Append(room, msg)
	e.broadcast(room, msg, trimmed)
	log.Debug().Str("room", room).Str("user", user).Msg("leave")
}

// RequestHistory 仅向调用方单播房间的完整历史快照，纯读操作。
func (e *Engine) RequestHistory(c Conn, room string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	c.Deliver(Event{Name: EvChatHistory, Payload: e.history.Get(room)})
}

// SendMessage 追加聊天消息并广播。若本次追加触发了裁剪，
// 广播裁剪后的完整历史以修复客户端本地缓存的缺口，否则只广播增量。
func (e *Engine) SendMessage(c Conn, room, user, text string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	e.append(room, user, text)
}

// PingUser 解析目标身份并定向投递；目标不在线时仅回告发起方。
func (e *Engine) PingUser(c Conn, from, to string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	target, ok := e.directory.Resolve(to)
	if !ok {
		metrics.PingsTotal.WithLabelValues("offline").Inc()
		c.Deliver(Event{Name: EvPingFailed, Payload: PingFailed{To: to, Reason: "offline"}})
		return
	}
	metrics.PingsTotal.WithLabelValues("delivered").Inc()
	target.Deliver(Event{Name: EvPingAlert, Payload: PingAlert{From: from}})
}

// OnlineUsers 向调用方单播房间当前在线名单。
func (e *Engine) OnlineUsers(c Conn, room string) {
	if !e.registry.IsAuthenticated(c) {
		return
	}
	c.Deliver(Event{Name: EvOnlineList, Payload: OnlineList{Room: room, Users: e.presence.ListOnline(room)}})
}

// Disconnect 清理连接派生的全部状态：所有房间的在线标记、
// 目录绑定与注册表记录。连接已消失，不发出任何事件。
func (e *Engine) Disconnect(c Conn) {
	if user, ok := e.directory.IdentityOf(c); ok {
		e.presence.RemoveFromAllRooms(user)
	}
	e.directory.Unbind(c)
	e.registry.Forget(c)
}

// Submit 是无认证闸口的 HTTP 提交路径，与 SendMessage 走同一广播逻辑。
// 空房间与空身份分别回落到 DefaultRoom 与 APIUser。
func (e *Engine) Submit(room, user, text string) Message {
	if room == "" {
		room = DefaultRoom
	}
	if user == "" {
		user = APIUser
	}
	return e.append(room, user, text)
}

// Snapshot 返回房间历史的当前快照，未知房间隐式创建。
func (e *Engine) Snapshot(room string) []Message {
	return e.history.Get(room)
}

// HistoryVersion 返回房间历史的当前版本号，供长轮询读取方使用。
func (e *Engine) HistoryVersion(room string) uint64 {
	return e.history.Version(room)
}

// WaitSnapshot 阻塞至房间出现新消息或超时，随后返回当前快照。
func (e *Engine) WaitSnapshot(room string, since uint64, timeout time.Duration) []Message {
	return e.history.Wait(room, since, timeout)
}

// OnlineSnapshot 返回房间当前在线名单，供 REST 只读接口复用。
func (e *Engine) OnlineSnapshot(room string) []string {
	return e.presence.ListOnline(room)
}

func (e *Engine) append(room, user, text string) Message {
	msg := NewMessage(room, user, text)
	trimmed := e.history.Append(room, msg)
	metrics.MessagesTotal.Inc()
	e.broadcast(room, msg, trimmed)
	return msg
}

// broadcast 把事件投递给房间在线集合中每个身份当前绑定的连接。
func (e *Engine) broadcast(room string, m Message, resync bool) {
	var ev Event
	if resync {
		metrics.HistoryTrimsTotal.Inc()
		ev = Event{Name: EvChatHistory, Payload: e.history.Get(room)}
	} else {
		ev = Event{Name: EvNewMessage, Payload: m}
	}
	for _, user := range e.presence.ListOnline(room) {
		if c, ok := e.directory.Resolve(user); ok {
			c.Deliver(ev)
		}
	}
}
