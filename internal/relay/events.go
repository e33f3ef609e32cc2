package relay

// 入站事件名，由传输层解析后分发到 Engine。
const (
	EvAuth           = "auth"
	EvJoinRoom       = "join_room"
	EvLeaveRoom      = "leave_room"
	EvRequestHistory = "request_history"
	EvSendMessage    = "send_message"
	EvPingUser       = "ping_user"
	EvOnlineRequest  = "online_request"
)

// 出站事件名。
const (
	EvAuthOK      = "auth_ok"
	EvNewMessage  = "new_message"
	EvChatHistory = "chat_history"
	EvPingAlert   = "ping_alert"
	EvPingFailed  = "ping_failed"
	EvOnlineList  = "online_list"
)

// Event 是投递给连接的出站事件。
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Conn 表示一条可投递事件的活动连接，由传输层实现。
type Conn interface {
	Deliver(e Event)
}

// PingAlert 是直连通知的载荷。
type PingAlert struct {
	From string `json:"from"`
}

// PingFailed 在目标身份未绑定连接时回送给发起方。
type PingFailed struct {
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// OnlineList 是房间在线名单查询的应答载荷。
type OnlineList struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}
