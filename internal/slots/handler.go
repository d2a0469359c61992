package slots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowdesk/platform/internal/access"
	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/internal/observability/metrics"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/pkg/logging"
)

const dateLayout = "2006-01-02"

// SalonSource resolves the salon a slot operation targets.
type SalonSource interface {
	GetByID(ctx context.Context, id string) (*salons.Salon, error)
}

// GenerationDefaults fills in generation parameters the request omits.
type GenerationDefaults struct {
	DurationMinutes int
	Capacity        int
}

// Handler handles HTTP requests for slot management.
type Handler struct {
	repo      *Repository
	ledger    *Ledger
	salonsSrc SalonSource
	metrics   *metrics.SlotMetrics
	defaults  GenerationDefaults
	logger    *logging.Logger
}

// NewHandler creates a new slots handler. Metrics may be nil.
func NewHandler(repo *Repository, ledger *Ledger, salonsSrc SalonSource, m *metrics.SlotMetrics, defaults GenerationDefaults, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, ledger: ledger, salonsSrc: salonsSrc, metrics: m, defaults: defaults, logger: logger}
}

// GenerateSlotsRequest is the bulk-generation payload.
type GenerateSlotsRequest struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	DurationMinutes int    `json:"duration_minutes"`
	Capacity        int    `json:"capacity"`
}

// Generate handles POST /salons/{salonID}/slots/generate (salon admin).
// Capacity defaults to the salon's default; existing slots in the range are
// skipped, never duplicated or mutated.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, salonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req GenerateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_date", "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_date", "end_date must be YYYY-MM-DD")
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = h.defaults.DurationMinutes
	}
	if req.DurationMinutes <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be positive")
		return
	}

	salon, err := h.salonsSrc.GetByID(r.Context(), salonID)
	if err != nil {
		if errors.Is(err, salons.ErrSalonNotFound) {
			respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
			return
		}
		h.logger.Error("failed to load salon for generation", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load salon")
		return
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = salon.DefaultSlotCapacity
	}
	if capacity <= 0 {
		capacity = h.defaults.Capacity
	}

	batch, err := Generate(GenerateRequest{
		SalonID:   salonID,
		Hours:     salon.OperatingHours,
		StartDate: startDate,
		EndDate:   endDate,
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		Capacity:  capacity,
	})
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.repo.InsertBatch(r.Context(), batch)
	if err != nil {
		h.logger.Error("slot generation failed", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to create slots")
		return
	}

	skipped := len(batch) - created
	h.metrics.ObserveGenerated(created, skipped)
	h.logger.Info("slots generated", "salon_id", salonID, "requested", len(batch), "created", created)
	respond.JSON(w, http.StatusCreated, map[string]int{"created": created, "skipped": skipped})
}

// CreateSlotRequest is the single-slot payload.
type CreateSlotRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Capacity        int    `json:"capacity"`
}

// Create handles POST /salons/{salonID}/slots (salon admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")
	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, salonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	startClock, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_time", "start_time must be HH:MM")
		return
	}
	if req.DurationMinutes <= 0 || req.Capacity <= 0 {
		respond.Error(w, http.StatusBadRequest, "validation_failed", "duration_minutes and capacity must be positive")
		return
	}

	startMin := startClock.Hour()*60 + startClock.Minute()
	slot := &Slot{
		ID:        uuid.NewString(),
		SalonID:   salonID,
		Date:      day,
		StartTime: ClockTime(startMin),
		EndTime:   ClockTime(startMin + req.DurationMinutes),
		Capacity:  req.Capacity,
	}
	if err := h.repo.Insert(r.Context(), slot); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			respond.Error(w, http.StatusConflict, "duplicate_slot", "a slot already exists at this time")
			return
		}
		h.logger.Error("failed to create slot", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to create slot")
		return
	}
	respond.JSON(w, http.StatusCreated, slot)
}

// List handles GET /salons/{salonID}/slots?from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	salonID := chi.URLParam(r, "salonID")

	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 7)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	list, err := h.repo.ListBySalon(r.Context(), salonID, from, to)
	if err != nil {
		h.logger.Error("failed to list slots", "salon_id", salonID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to list slots")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"slots": list, "count": len(list)})
}

// UpdateCapacityRequest resizes a slot.
type UpdateCapacityRequest struct {
	Capacity int `json:"capacity"`
}

// UpdateCapacity handles PATCH /slots/{slotID}/capacity (salon admin).
func (h *Handler) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")
	slot, err := h.repo.GetByID(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			respond.Error(w, http.StatusNotFound, "slot_not_found", "slot not found")
			return
		}
		h.logger.Error("failed to load slot", "slot_id", slotID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load slot")
		return
	}

	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, slot.SalonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	var req UpdateCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	if err := h.ledger.SetCapacity(r.Context(), slotID, req.Capacity); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCapacity):
			respond.Error(w, http.StatusBadRequest, "invalid_capacity", "capacity must be positive")
		case errors.Is(err, ErrSlotNotFound):
			respond.Error(w, http.StatusNotFound, "slot_not_found", "slot not found")
		case errors.Is(err, ErrCapacityBelowBooked):
			respond.Error(w, http.StatusConflict, "capacity_below_booked", "capacity cannot drop below the booked count")
		default:
			h.logger.Error("failed to set capacity", "slot_id", slotID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal", "failed to update slot")
		}
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"slot_id": slotID, "capacity": req.Capacity})
}

// Delete handles DELETE /slots/{slotID} (salon admin). A slot with reserved
// capacity cannot be removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")
	slot, err := h.repo.GetByID(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			respond.Error(w, http.StatusNotFound, "slot_not_found", "slot not found")
			return
		}
		h.logger.Error("failed to load slot", "slot_id", slotID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to load slot")
		return
	}

	claims, _ := identity.ClaimsFromContext(r.Context())
	if !access.IsSalonAdmin(claims, slot.SalonID) {
		respond.Error(w, http.StatusForbidden, "forbidden", "salon admin required")
		return
	}

	if err := h.ledger.Delete(r.Context(), slotID); err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			respond.Error(w, http.StatusNotFound, "slot_not_found", "slot not found")
		case errors.Is(err, ErrSlotHasBookings):
			respond.Error(w, http.StatusConflict, "slot_has_bookings", "slot still has reserved capacity")
		default:
			h.logger.Error("failed to delete slot", "slot_id", slotID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal", "failed to delete slot")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
