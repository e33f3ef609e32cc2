package mw

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter 按客户端 IP 维护令牌桶，闲置条目由后台 GC 回收。
// 这是 HTTP 入口的基础防护，中继核心本身不做限速。
type Limiter struct {
	mu   sync.Mutex
	keys map[string]*bucket
	r    rate.Limit
	b    int
	ttl  time.Duration
	stop chan struct{}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewLimiter(r rate.Limit, burst int, ttl time.Duration) *Limiter {
	l := &Limiter{keys: make(map[string]*bucket), r: r, b: burst, ttl: ttl, stop: make(chan struct{})}
	go l.gc()
	return l
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	bk, ok := l.keys[key]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = bk
	}
	bk.seen = time.Now()
	return bk.lim.Allow()
}

func (l *Limiter) gc() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.ttl)
			l.mu.Lock()
			for k, bk := range l.keys {
				if bk.seen.Before(cutoff) {
					delete(l.keys, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop 停止 GC goroutine，用于优雅停服。
func (l *Limiter) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}

// RateLimit 返回按 IP 的令牌桶限速中间件。
func RateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	l := NewLimiter(r, burst, 2*time.Minute)
	return func(c *gin.Context) {
		if !l.allow(clientIP(c.Request.RemoteAddr)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
