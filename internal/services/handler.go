package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowdesk/platform/internal/access"
	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/pkg/logging"
)

// Handler handles HTTP requests for the service catalog.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new services handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /salons/{salonID}/services (salon admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, salonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	req.SalonID = salonID

	svc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			respond.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		h.logger.Error("failed to create service", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to create service")
		return
	}

	h.logger.Info("service created", "service_id", svc.ID, "salon_id", salonID)
	respond.JSON(w, http.StatusCreated, svc)
}

// List handles GET /salons/{salonID}/services. Staff see inactive entries
// too; everyone else sees the active catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	includeInactive := access.IsSalonStaff(claims, salonID)

	list, err := h.repo.ListBySalon(r.Context(), salonID, includeInactive)
	if err != nil {
		h.logger.Error("failed to list services", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to list services")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"services": list, "count": len(list)})
}

// Get handles GET /services/{serviceID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			respond.Error(w, http.StatusNotFound, "service_not_found", "service not found")
			return
		}
		h.logger.Error("failed to load service", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load service")
		return
	}
	respond.JSON(w, http.StatusOK, svc)
}

// Update handles PATCH /services/{serviceID} (salon admin). Deactivation
// goes through here via is_active.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")

	svc, err := h.repo.GetByID(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			respond.Error(w, http.StatusNotFound, "service_not_found", "service not found")
			return
		}
		h.logger.Error("failed to load service", "service_id", serviceID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load service")
		return
	}

	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, svc.SalonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	updated, err := h.repo.Update(r.Context(), serviceID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			respond.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		case errors.Is(err, ErrServiceNotFound):
			respond.Error(w, http.StatusNotFound, "service_not_found", "service not found")
		default:
			h.logger.Error("failed to update service", "service_id", serviceID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal", "failed to update service")
		}
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}
