package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glowdesk/platform/internal/identity"
)

type staticParser struct {
	claims identity.Claims
	err    error
}

func (p staticParser) Parse(token string) (identity.Claims, error) {
	if p.err != nil {
		return identity.Claims{}, p.err
	}
	return p.claims, nil
}

func claimsEcho(t *testing.T, got *identity.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := identity.ClaimsFromContext(r.Context())
		*got = claims
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	var got identity.Claims
	parser := staticParser{claims: identity.Claims{UserID: "user-1", Role: identity.RoleUser}}
	handler := RequireAuth(parser)(claimsEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.UserID != "user-1" {
		t.Fatalf("claims not propagated: %+v", got)
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	handler := RequireAuth(staticParser{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	handler := RequireAuth(staticParser{err: errors.New("bad")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	var got identity.Claims
	handler := OptionalAuth(staticParser{err: errors.New("bad")})(claimsEcho(t, &got))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Valid() {
		t.Fatalf("anonymous request should carry no claims, got %+v", got)
	}
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	if !rl.Allow("ip-1") || !rl.Allow("ip-1") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("ip-1") {
		t.Fatal("third request should be blocked")
	}
	if !rl.Allow("ip-2") {
		t.Fatal("other IPs have their own bucket")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://app.glowdesk.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.glowdesk.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.glowdesk.example" {
		t.Fatalf("origin header = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	handler := CORS([]string{"https://app.glowdesk.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be echoed")
	}
}
