package relay

import (
	"sync"
	"time"
)

// 历史裁剪阈值的缺省值，与配置层保持一致。
const (
	DefaultHistoryMax  = 50
	DefaultHistoryKeep = 10
)

type roomLog struct {
	entries []Message
	version uint64
	changed chan struct{} // closed and replaced on every append
}

// History 按房间保存有界的追加式消息日志。
// 日志长度一旦达到 max，立即原子地裁剪为最新的 keep 条。
type History struct {
	mu   sync.Mutex
	max  int
	keep int
	logs map[string]*roomLog
}

func NewHistory(max, keep int) *History {
	if max <= 0 {
		max = DefaultHistoryMax
	}
	if keep <= 0 || keep >= max {
		keep = DefaultHistoryKeep
	}
	return &History{max: max, keep: keep, logs: make(map[string]*roomLog)}
}

// room 返回房间日志，首次引用即创建。调用方必须持有 h.mu。
func (h *History) room(name string) *roomLog {
	l, ok := h.logs[name]
	if !ok {
		l = &roomLog{changed: make(chan struct{})}
		h.logs[name] = l
	}
	return l
}

// Append 将消息追加到房间日志末尾。若追加后长度达到上限，
// 日志被替换为最新的 keep 条并返回 true，调用方据此广播全量重同步。
func (h *History) Append(room string, m Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	l := h.room(room)
	l.entries = append(l.entries, m)
	trimmed := false
	if len(l.entries) >= h.max {
		kept := make([]Message, h.keep)
		copy(kept, l.entries[len(l.entries)-h.keep:])
		l.entries = kept
		trimmed = true
	}
	l.version++
	close(l.changed)
	l.changed = make(chan struct{})
	return trimmed
}

// Get 返回房间日志的快照副本；未知房间被隐式创建为空日志。
func (h *History) Get(room string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	l := h.room(room)
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Version 返回房间日志的当前版本号，每次追加递增。
func (h *History) Version(room string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.room(room).version
}

// Wait 阻塞直到房间日志版本超过 since 或超时，随后无条件返回当前快照。
// 等待期间不持有存储锁，并发写入方不会被空闲的读者阻塞。
func (h *History) Wait(room string, since uint64, timeout time.Duration) []Message {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		h.mu.Lock()
		l := h.room(room)
		if l.version != since {
			out := make([]Message, len(l.entries))
			copy(out, l.entries)
			h.mu.Unlock()
			return out
		}
		ch := l.changed
		h.mu.Unlock()

		select {
		case <-ch:
		case <-deadline.C:
			return h.Get(room)
		}
	}
}
