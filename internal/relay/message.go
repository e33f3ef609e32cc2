package relay

import (
	"fmt"
	"time"
)

// 系统消息的保留作者名，以及 HTTP 提交入口的默认房间与默认身份。
const (
	SystemUser  = "SYSTEM"
	DefaultRoom = "general"
	APIUser     = "API"
)

// Message 是房间历史中的一条不可变记录，时间戳取秒级精度。
type Message struct {
	Room string    `json:"room"`
	User string    `json:"user"`
	Text string    `json:"text"`
	Sent time.Time `json:"sent"`
}

// NewMessage 以当前时间构造一条消息。
func NewMessage(room, user, text string) Message {
	return Message{Room: room, User: user, Text: text, Sent: time.Now().Truncate(time.Second)}
}

func systemJoined(room, user string) Message {
	return NewMessage(room, SystemUser, fmt.Sprintf("%s joined the room", user))
}

func systemLeft(room, user string) Message {
	return NewMessage(room, SystemUser, fmt.Sprintf("%s left the room", user))
}
