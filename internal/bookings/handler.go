package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/services"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/pkg/logging"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for the booking lifecycle.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new bookings handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("bookings: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateBookingRequest is the booking payload.
type CreateBookingRequest struct {
	SalonID   string `json:"salon_id"`
	ServiceID string `json:"service_id"`
	SlotID    string `json:"slot_id"`
	Notes     string `json:"notes"`
}

// Create handles POST /bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	booking, err := h.svc.Create(r.Context(), claims, CreateParams{
		SalonID:   req.SalonID,
		ServiceID: req.ServiceID,
		SlotID:    req.SlotID,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, booking)
}

// Get handles GET /bookings/{bookingID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	booking, err := h.svc.Get(r.Context(), claims, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// QRImage handles GET /bookings/{bookingID}/qr, rendering the check-in code
// as a PNG.
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	booking, err := h.svc.Get(r.Context(), claims, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	png, err := qrcode.Encode(booking.QRCode, qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("failed to render qr code", "booking_id", booking.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "failed to render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Cancel handles POST /bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	booking, err := h.svc.Cancel(r.Context(), claims, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// Start handles POST /bookings/{bookingID}/start (salon staff check-in).
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	booking, err := h.svc.Start(r.Context(), claims, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// CompleteBookingRequest closes out a booking.
type CompleteBookingRequest struct {
	NoShow bool `json:"no_show"`
}

// Complete handles POST /bookings/{bookingID}/complete (salon staff). The
// no_show flag records a customer who never arrived.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())

	var req CompleteBookingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
			return
		}
	}

	booking, err := h.svc.Finish(r.Context(), claims, chi.URLParam(r, "bookingID"), req.NoShow)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// RescheduleBookingRequest moves a booking to a new slot.
type RescheduleBookingRequest struct {
	SlotID    string `json:"slot_id"`
	ServiceID string `json:"service_id"`
}

// Reschedule handles POST /bookings/{bookingID}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())

	var req RescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	booking, err := h.svc.Reschedule(r.Context(), claims, chi.URLParam(r, "bookingID"), RescheduleParams{
		SlotID:    req.SlotID,
		ServiceID: req.ServiceID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// CheckIn handles GET /bookings/checkin/{code} (salon staff resolving a
// scanned QR code).
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	booking, err := h.svc.CheckIn(r.Context(), claims, chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, booking)
}

// ListMine handles GET /bookings/mine.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	list, err := h.svc.ListMine(r.Context(), claims, 0)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"bookings": list, "count": len(list)})
}

// ListSalonDay handles GET /salons/{salonID}/bookings?date=&status= (salon
// staff). Date defaults to today.
func (h *Handler) ListSalonDay(w http.ResponseWriter, r *http.Request) {
	claims, _ := identity.ClaimsFromContext(r.Context())
	salonID := chi.URLParam(r, "salonID")

	day := time.Now().UTC().Truncate(24 * time.Hour)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.Active() && !status.Terminal() {
		respond.Error(w, http.StatusBadRequest, "invalid_status", "unknown booking status")
		return
	}

	list, err := h.svc.ListSalonDay(r.Context(), claims, salonID, day, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"bookings": list, "count": len(list)})
}

// writeError maps lifecycle errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, ErrBookingNotFound):
		respond.Error(w, http.StatusNotFound, "booking_not_found", "booking not found")
	case errors.Is(err, salons.ErrSalonNotFound):
		respond.Error(w, http.StatusNotFound, "salon_not_found", "salon not found")
	case errors.Is(err, services.ErrServiceNotFound):
		respond.Error(w, http.StatusNotFound, "service_not_found", "service not found")
	case errors.Is(err, slots.ErrSlotNotFound):
		respond.Error(w, http.StatusNotFound, "slot_not_found", "slot not found")
	case errors.Is(err, salons.ErrSalonUnavailable):
		respond.Error(w, http.StatusConflict, "salon_unavailable", "salon is not accepting bookings")
	case errors.Is(err, services.ErrServiceInactive):
		respond.Error(w, http.StatusConflict, "service_inactive", "service is not bookable")
	case errors.Is(err, slots.ErrSlotFull):
		respond.Error(w, http.StatusConflict, "slot_full", "slot is fully booked")
	case errors.Is(err, ErrDuplicateBooking):
		respond.Error(w, http.StatusConflict, "duplicate_booking", "an active booking already exists for this slot")
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "invalid_transition", "booking status does not permit this action")
	case errors.Is(err, ErrPermissionDenied):
		respond.Error(w, http.StatusForbidden, "forbidden", "not permitted")
	default:
		h.logger.Error("booking request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal", "request failed")
	}
}
