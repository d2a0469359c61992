package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/internal/users"
	"github.com/glowdesk/platform/pkg/logging"
)

type staticParser struct{ claims identity.Claims }

func (p staticParser) Parse(token string) (identity.Claims, error) {
	return p.claims, nil
}

func newTestRouter() http.Handler {
	return New(&Config{
		Logger:      logging.Default(),
		TokenParser: staticParser{claims: identity.Claims{UserID: "user-1", Role: identity.RoleUser}},
	})
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

type userStore struct{}

func (userStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	return &users.User{ID: id, Role: identity.RoleUser}, nil
}
func (userStore) UpdateName(ctx context.Context, id, name string) error { return nil }
func (userStore) AssignRole(ctx context.Context, id string, role identity.Role, salonID string) error {
	return nil
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	handler := New(&Config{
		Logger:       logging.Default(),
		TokenParser:  staticParser{claims: identity.Claims{UserID: "user-1", Role: identity.RoleUser}},
		UsersHandler: users.NewHandler(userStore{}, logging.Default()),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without a token", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with a token", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
