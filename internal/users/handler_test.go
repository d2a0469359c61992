package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/pkg/logging"
)

type fakeStore struct {
	user    *User
	renamed []string
	grants  []identity.Role
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*User, error) {
	if f.user == nil {
		return nil, ErrUserNotFound
	}
	u := *f.user
	return &u, nil
}

func (f *fakeStore) UpdateName(ctx context.Context, id, name string) error {
	f.renamed = append(f.renamed, name)
	f.user.Name = name
	return nil
}

func (f *fakeStore) AssignRole(ctx context.Context, id string, role identity.Role, salonID string) error {
	if f.user == nil {
		return ErrUserNotFound
	}
	f.grants = append(f.grants, role)
	return nil
}

func authed(req *http.Request, claims identity.Claims) *http.Request {
	return req.WithContext(identity.WithClaims(req.Context(), claims))
}

func TestMeReturnsProfile(t *testing.T) {
	store := &fakeStore{user: &User{ID: "user-1", Phone: "+15550001111", Role: identity.RoleUser}}
	h := NewHandler(store, logging.Default())

	req := authed(httptest.NewRequest(http.MethodGet, "/users/me", nil),
		identity.Claims{UserID: "user-1", Role: identity.RoleUser})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "user-1", got.ID)
}

func TestMeWithoutClaims(t *testing.T) {
	h := NewHandler(&fakeStore{}, logging.Default())
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMeValidatesName(t *testing.T) {
	store := &fakeStore{user: &User{ID: "user-1"}}
	h := NewHandler(store, logging.Default())

	body := bytes.NewBufferString(`{"name":"   "}`)
	req := authed(httptest.NewRequest(http.MethodPatch, "/users/me", body),
		identity.Claims{UserID: "user-1", Role: identity.RoleUser})
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.renamed)
}

func TestUpdateMeRenames(t *testing.T) {
	store := &fakeStore{user: &User{ID: "user-1"}}
	h := NewHandler(store, logging.Default())

	body := bytes.NewBufferString(`{"name":"Ada Lovelace"}`)
	req := authed(httptest.NewRequest(http.MethodPatch, "/users/me", body),
		identity.Claims{UserID: "user-1", Role: identity.RoleUser})
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Ada Lovelace"}, store.renamed)
}

func assignRoleRequest(t *testing.T, claims identity.Claims, payload string) *httptest.ResponseRecorder {
	t.Helper()
	store := &fakeStore{user: &User{ID: "user-2"}}
	h := NewHandler(store, logging.Default())

	r := chi.NewRouter()
	r.Put("/admin/users/{userID}/role", h.AssignRole)

	req := authed(httptest.NewRequest(http.MethodPut, "/admin/users/user-2/role", bytes.NewBufferString(payload)), claims)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAssignRoleRequiresSuperAdmin(t *testing.T) {
	rec := assignRoleRequest(t,
		identity.Claims{UserID: "admin-1", Role: identity.RoleSalonAdmin, SalonID: "salon-1"},
		`{"role":"salon_staff","salon_id":"salon-1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignRoleGrants(t *testing.T) {
	rec := assignRoleRequest(t,
		identity.Claims{UserID: "root", Role: identity.RoleSuperAdmin},
		`{"role":"salon_admin","salon_id":"salon-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssignRoleRejectsSalonRoleWithoutSalon(t *testing.T) {
	rec := assignRoleRequest(t,
		identity.Claims{UserID: "root", Role: identity.RoleSuperAdmin},
		`{"role":"salon_staff"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	rec := assignRoleRequest(t,
		identity.Claims{UserID: "root", Role: identity.RoleSuperAdmin},
		`{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
