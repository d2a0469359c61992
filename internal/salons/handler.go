package salons

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/glowdesk/platform/internal/access"
	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/pkg/logging"
)

// ImageUploader stores a salon image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key string, contentType string, body []byte) (string, error)
}

// Handler handles HTTP requests for salons.
type Handler struct {
	repo     *Repository
	uploader ImageUploader
	logger   *logging.Logger
}

// NewHandler creates a new salons handler.
func NewHandler(repo *Repository, uploader ImageUploader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, uploader: uploader, logger: logger}
}

// Create handles POST /salons. The salon starts in pending state until a
// super admin approves it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	salon, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			respond.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		h.logger.Error("failed to create salon", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to create salon")
		return
	}

	h.logger.Info("salon created", "salon_id", salon.ID, "name", salon.Name)
	respond.JSON(w, http.StatusCreated, salon)
}

// Get handles GET /salons/{salonID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	salon, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "salonID"))
	if err != nil {
		if errors.Is(err, ErrSalonNotFound) {
			respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
			return
		}
		h.logger.Error("failed to load salon", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load salon")
		return
	}
	respond.JSON(w, http.StatusOK, salon)
}

// ListResponse is the paged salon listing.
type ListResponse struct {
	Salons []*Salon `json:"salons"`
	Count  int      `json:"count"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// List handles GET /salons. End users see approved salons only; a super
// admin may filter by any status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: StatusApproved, Limit: 50}

	claims, _ := identity.ClaimsFromContext(r.Context())
	if access.IsSuperAdmin(claims) {
		filter.Status = Status(r.URL.Query().Get("status"))
	}
	filter.Search = r.URL.Query().Get("q")
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	list, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list salons", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to list salons")
		return
	}
	respond.JSON(w, http.StatusOK, ListResponse{Salons: list, Count: len(list), Offset: filter.Offset, Limit: filter.Limit})
}

// UpdateStatusRequest moves a salon through moderation.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus handles PATCH /salons/{salonID}/status (super admin only).
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSuperAdmin(claims) {
		respond.Error(w, http.StatusForbidden, "forbidden", "super admin required")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	salonID := chi.URLParam(r, "salonID")
	if err := h.repo.UpdateStatus(r.Context(), salonID, req.Status); err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			respond.Error(w, http.StatusBadRequest, "invalid_status", "unknown salon status")
		case errors.Is(err, ErrSalonNotFound):
			respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
		default:
			h.logger.Error("failed to update salon status", "salon_id", salonID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal", "failed to update salon")
		}
		return
	}

	h.logger.Info("salon status updated", "salon_id", salonID, "status", req.Status)
	respond.JSON(w, http.StatusOK, map[string]string{"salon_id": salonID, "status": string(req.Status)})
}

// UpdateHoursRequest replaces the weekly operating hours.
type UpdateHoursRequest struct {
	OperatingHours WeeklyHours `json:"operating_hours"`
}

// UpdateHours handles PUT /salons/{salonID}/hours (salon admin).
func (h *Handler) UpdateHours(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, salonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req UpdateHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OperatingHours == nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "operating_hours required")
		return
	}

	if err := h.repo.UpdateHours(r.Context(), salonID, req.OperatingHours); err != nil {
		if errors.Is(err, ErrSalonNotFound) {
			respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
			return
		}
		h.logger.Error("failed to update hours", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to update hours")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"salon_id": salonID})
}

// UploadImage handles POST /salons/{salonID}/image (salon admin). The body
// is the raw image; delivery to object storage is best-effort outside the
// booking path.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, salonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}
	if h.uploader == nil {
		respond.Error(w, http.StatusServiceUnavailable, "uploads_disabled", "image uploads not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "failed to read image body")
		return
	}
	if len(body) == 0 {
		respond.Error(w, http.StatusBadRequest, "empty_body", "image body required")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	url, err := h.uploader.Upload(r.Context(), "salons/"+salonID, contentType, body)
	if err != nil {
		h.logger.Error("image upload failed", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusBadGateway, "upload_failed", "failed to store image")
		return
	}
	if err := h.repo.UpdateImageURL(r.Context(), salonID, url); err != nil {
		if errors.Is(err, ErrSalonNotFound) {
			respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
			return
		}
		h.logger.Error("failed to persist image url", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to save image")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"salon_id": salonID, "image_url": url})
}
