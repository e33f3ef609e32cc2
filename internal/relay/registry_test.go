package relay

import "testing"

func allow(tokens ...string) TokenValidator {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return func(tok string) bool {
		_, ok := set[tok]
		return ok
	}
}

func TestRegistry_Authenticate(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid token", "tobytokengjbgrjl", true},
		{"invalid token", "nope", false},
		{"empty token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(allow("tobytokengjbgrjl"))
			c := &stubConn{}
			if got := r.Authenticate(c, tt.token); got != tt.want {
				t.Errorf("Authenticate() = %v, want %v", got, tt.want)
			}
			if r.IsAuthenticated(c) != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", r.IsAuthenticated(c), tt.want)
			}
		})
	}
}

func TestRegistry_ReauthenticateIsIdempotent(t *testing.T) {
	r := NewRegistry(allow("tok"))
	c := &stubConn{}
	if !r.Authenticate(c, "tok") || !r.Authenticate(c, "tok") {
		t.Fatal("re-authentication with a valid token should succeed silently")
	}
	if !r.IsAuthenticated(c) {
		t.Error("connection lost authentication after re-auth")
	}
}

func TestRegistry_FailedAuthLeavesStateUnchanged(t *testing.T) {
	r := NewRegistry(allow("tok"))
	c := &stubConn{}
	r.Authenticate(c, "tok")

	// a later bad credential must not revoke the existing authentication
	if r.Authenticate(c, "bad") {
		t.Error("Authenticate() accepted an invalid credential")
	}
	if !r.IsAuthenticated(c) {
		t.Error("failed re-auth mutated registry state")
	}
}

func TestRegistry_Forget(t *testing.T) {
	r := NewRegistry(allow("tok"))
	c := &stubConn{}
	r.Authenticate(c, "tok")
	r.Forget(c)

	if r.IsAuthenticated(c) {
		t.Error("IsAuthenticated() = true after Forget")
	}
}
