package relay

import "sync"

// Directory 维护用户身份与活动连接之间的双向映射，用于定向投递。
// 同一身份同一时刻至多绑定一条连接，后写者覆盖前者且不通知被顶掉的连接。
type Directory struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[Conn]string
}

func NewDirectory() *Directory {
	return &Directory{byUser: make(map[string]Conn), byConn: make(map[Conn]string)}
}

// Bind 绑定身份与连接，覆盖双方已有的任何绑定。
func (d *Directory) Bind(user string, c Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byUser[user]; ok && prev != c {
		delete(d.byConn, prev)
	}
	if old, ok := d.byConn[c]; ok && old != user {
		delete(d.byUser, old)
	}
	d.byUser[user] = c
	d.byConn[c] = user
}

// Resolve 查找身份当前绑定的连接。
func (d *Directory) Resolve(user string) (Conn, bool) {
	d.mu.RLock()
	c, ok := d.byUser[user]
	d.mu.RUnlock()
	return c, ok
}

// IdentityOf 查找连接当前绑定的身份。
func (d *Directory) IdentityOf(c Conn) (string, bool) {
	d.mu.RLock()
	user, ok := d.byConn[c]
	d.mu.RUnlock()
	return user, ok
}

// Unbind 按连接移除绑定，连接无绑定时为空操作。
func (d *Directory) Unbind(c Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if user, ok := d.byConn[c]; ok {
		if d.byUser[user] == c {
			delete(d.byUser, user)
		}
		delete(d.byConn, c)
	}
}
