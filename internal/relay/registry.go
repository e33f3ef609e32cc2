package relay

import "sync"

// TokenValidator 判断一个凭证是否允许连接通过认证。
type TokenValidator func(token string) bool

// Registry 维护连接到认证状态的映射，是所有房间与消息操作的授权闸口。
type Registry struct {
	mu     sync.RWMutex
	authed map[Conn]struct{}
	valid  TokenValidator
}

func NewRegistry(valid TokenValidator) *Registry {
	return &Registry{authed: make(map[Conn]struct{}), valid: valid}
}

// Authenticate 校验凭证并标记连接为已认证；重复认证幂等。
// 返回 false 时调用方应关闭该连接，状态不发生任何变化。
func (r *Registry) Authenticate(c Conn, token string) bool {
	if r.valid == nil || !r.valid(token) {
		return false
	}
	r.mu.Lock()
	r.authed[c] = struct{}{}
	r.mu.Unlock()
	return true
}

// IsAuthenticated 是纯查询。
func (r *Registry) IsAuthenticated(c Conn) bool {
	r.mu.RLock()
	_, ok := r.authed[c]
	r.mu.RUnlock()
	return ok
}

// Forget 清除连接的全部注册状态，断开时调用一次。
func (r *Registry) Forget(c Conn) {
	r.mu.Lock()
	delete(r.authed, c)
	r.mu.Unlock()
}
