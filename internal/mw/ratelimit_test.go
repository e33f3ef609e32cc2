package mw

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := NewLimiter(rate.Every(time.Hour), 3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4") {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if l.allow("1.2.3.4") {
		t.Error("request beyond burst was allowed")
	}
	// other clients have their own bucket
	if !l.allow("5.6.7.8") {
		t.Error("a fresh client was throttled by another client's bucket")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"10.0.0.1:5123", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"nonsense", "nonsense"},
	}
	for _, tt := range tests {
		if got := clientIP(tt.remote); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
