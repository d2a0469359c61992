package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/glowdesk/platform/internal/access"
	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/pkg/logging"
)

// Store is the persistence surface the handler needs.
type Store interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateName(ctx context.Context, id, name string) error
	AssignRole(ctx context.Context, id string, role identity.Role, salonID string) error
}

// Handler handles HTTP requests for account profiles and role grants.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new users handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("users: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	user, err := h.store.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user_not_found", "account no longer exists")
			return
		}
		h.logger.Error("failed to load profile", "user_id", claims.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// UpdateProfileRequest changes mutable profile fields.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 120 {
		respond.Error(w, http.StatusBadRequest, "validation_failed", "name must be 1-120 characters")
		return
	}

	if err := h.store.UpdateName(r.Context(), claims.UserID, name); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user_not_found", "account no longer exists")
			return
		}
		h.logger.Error("failed to update profile", "user_id", claims.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to update profile")
		return
	}
	user, err := h.store.GetByID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to reload profile", "user_id", claims.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// AssignRoleRequest grants a role, optionally binding the user to a salon.
type AssignRoleRequest struct {
	Role    string `json:"role"`
	SalonID string `json:"salon_id"`
}

// AssignRole handles PUT /admin/users/{userID}/role (super admin only).
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSuperAdmin(claims) {
		respond.Error(w, http.StatusForbidden, "forbidden", "super admin required")
		return
	}

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	role := identity.Role(req.Role)
	switch role {
	case identity.RoleSuperAdmin, identity.RoleSalonAdmin, identity.RoleSalonStaff, identity.RoleUser:
	default:
		respond.Error(w, http.StatusBadRequest, "invalid_role", "unknown role")
		return
	}
	if (role == identity.RoleSalonAdmin || role == identity.RoleSalonStaff) && req.SalonID == "" {
		respond.Error(w, http.StatusBadRequest, "validation_failed", "salon_id is required for salon roles")
		return
	}

	userID := chi.URLParam(r, "userID")
	if err := h.store.AssignRole(r.Context(), userID, role, req.SalonID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		h.logger.Error("failed to assign role", "user_id", userID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to assign role")
		return
	}
	h.logger.Info("role assigned", "user_id", userID, "role", role, "salon_id", req.SalonID)
	respond.JSON(w, http.StatusOK, map[string]string{"user_id": userID, "role": string(role), "salon_id": req.SalonID})
}
