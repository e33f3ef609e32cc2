package relay

import (
	"sort"
	"sync"
)

// Presence 记录每个房间当前在线的用户身份集合（set 语义，不重复计数）。
type Presence struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[string]map[string]struct{})}
}

// MarkOnline 将身份加入房间在线集合，幂等。
func (p *Presence) MarkOnline(room, user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.rooms[room]
	if !ok {
		set = make(map[string]struct{})
		p.rooms[room] = set
	}
	set[user] = struct{}{}
}

// MarkOffline 将身份移出房间在线集合，不在集合中时为空操作。
func (p *Presence) MarkOffline(room, user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if set, ok := p.rooms[room]; ok {
		delete(set, user)
	}
}

// RemoveFromAllRooms 在断开连接时把身份从所有房间的在线集合中清除。
// 连接并不记录自己加入过哪些房间，所以这里做全量扫描。
func (p *Presence) RemoveFromAllRooms(user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, set := range p.rooms {
		delete(set, user)
	}
}

// ListOnline 返回房间当前在线身份，按名称排序；未知房间返回空切片。
func (p *Presence) ListOnline(room string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.rooms[room]
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
