package bookings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/glowdesk/platform/internal/access"
	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/internal/observability/metrics"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/pkg/logging"
)

// Store is the persistence surface the service drives.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*Booking, error)
	Cancel(ctx context.Context, id string) (*Booking, error)
	StartService(ctx context.Context, id, staffID string) (*Booking, error)
	Finish(ctx context.Context, id, completedBy string, to Status) (*Booking, error)
	Reschedule(ctx context.Context, id string, params RescheduleParams) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByQRCode(ctx context.Context, code string) (*Booking, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Booking, error)
	ListBySalonDay(ctx context.Context, salonID string, day time.Time, status Status) ([]*Booking, error)
}

// Notifier delivers booking confirmations out of band.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *Booking)
}

// Service enforces the access policy around the booking lifecycle and emits
// traces, metrics and confirmations.
type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.BookingMetrics
	tracer   trace.Tracer
	logger   *logging.Logger
}

// NewService constructs a bookings service. Notifier and metrics are optional.
func NewService(store Store, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("bookings: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		tracer:   otel.Tracer("glowdesk.internal.bookings"),
		logger:   logger,
	}
}

// Create books a slot for the authenticated user and fires the confirmation
// after commit. The confirmation never blocks or fails the booking.
func (s *Service) Create(ctx context.Context, claims identity.Claims, params CreateParams) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("glowdesk.salon_id", params.SalonID),
		attribute.String("glowdesk.slot_id", params.SlotID),
	)

	params.UserID = claims.UserID
	start := time.Now()
	booking, err := s.store.Create(ctx, params)
	s.metrics.ObserveCreateLatency(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		s.observeConflict(err)
		return nil, err
	}
	s.metrics.ObserveCreated(booking.SalonID)
	s.logger.Info("booking created",
		"booking_id", booking.ID, "salon_id", booking.SalonID, "slot_id", booking.SlotID)

	if s.notifier != nil {
		confirmed := *booking
		go s.notifier.BookingConfirmed(context.WithoutCancel(ctx), &confirmed)
	}
	return booking, nil
}

// Cancel releases a booking held by its owner or managed by salon staff.
func (s *Service) Cancel(ctx context.Context, claims identity.Claims, id string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("glowdesk.booking_id", id))

	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanCancelBooking(claims, booking.SalonID, booking.UserID) {
		return nil, ErrPermissionDenied
	}

	cancelled, err := s.store.Cancel(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking cancelled", "booking_id", id, "slot_id", cancelled.SlotID)
	return cancelled, nil
}

// Start checks a customer in, moving the booking to in_progress. Staff only.
func (s *Service) Start(ctx context.Context, claims identity.Claims, id string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.start")
	defer span.End()

	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageBooking(claims, booking.SalonID) {
		return nil, ErrPermissionDenied
	}
	started, err := s.store.StartService(ctx, id, claims.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("service started", "booking_id", id, "staff_id", claims.UserID)
	return started, nil
}

// Finish closes a booking as completed, or as no_show when the customer never
// arrived. Staff only.
func (s *Service) Finish(ctx context.Context, claims identity.Claims, id string, noShow bool) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.finish")
	defer span.End()

	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageBooking(claims, booking.SalonID) {
		return nil, ErrPermissionDenied
	}
	to := StatusCompleted
	if noShow {
		to = StatusNoShow
	}
	finished, err := s.store.Finish(ctx, id, claims.UserID, to)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking finished", "booking_id", id, "status", finished.Status)
	return finished, nil
}

// Reschedule moves a booking to a new slot. Staff only; customers cancel and
// rebook instead.
func (s *Service) Reschedule(ctx context.Context, claims identity.Claims, id string, params RescheduleParams) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "bookings.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("glowdesk.booking_id", id),
		attribute.String("glowdesk.slot_id", params.SlotID),
	)

	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageBooking(claims, booking.SalonID) {
		return nil, ErrPermissionDenied
	}
	moved, err := s.store.Reschedule(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		s.observeConflict(err)
		return nil, err
	}
	s.logger.Info("booking rescheduled", "booking_id", id, "slot_id", moved.SlotID)
	return moved, nil
}

// Get returns one booking to its owner or salon staff.
func (s *Service) Get(ctx context.Context, claims identity.Claims, id string) (*Booking, error) {
	booking, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != claims.UserID && !access.CanManageBooking(claims, booking.SalonID) {
		return nil, ErrPermissionDenied
	}
	return booking, nil
}

// CheckIn resolves a scanned QR code for salon staff.
func (s *Service) CheckIn(ctx context.Context, claims identity.Claims, code string) (*Booking, error) {
	booking, err := s.store.GetByQRCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !access.CanManageBooking(claims, booking.SalonID) {
		return nil, ErrPermissionDenied
	}
	return booking, nil
}

// ListMine returns the authenticated user's bookings.
func (s *Service) ListMine(ctx context.Context, claims identity.Claims, limit int) ([]*Booking, error) {
	return s.store.ListByUser(ctx, claims.UserID, limit)
}

// ListSalonDay returns a salon's schedule for one day to its staff.
func (s *Service) ListSalonDay(ctx context.Context, claims identity.Claims, salonID string, day time.Time, status Status) ([]*Booking, error) {
	if !access.CanManageBooking(claims, salonID) {
		return nil, ErrPermissionDenied
	}
	return s.store.ListBySalonDay(ctx, salonID, day, status)
}

func (s *Service) observeConflict(err error) {
	switch {
	case errors.Is(err, slots.ErrSlotFull):
		s.metrics.ObserveConflict("slot_full")
	case errors.Is(err, ErrDuplicateBooking):
		s.metrics.ObserveConflict("duplicate")
	case errors.Is(err, salons.ErrSalonUnavailable):
		s.metrics.ObserveConflict("salon_unavailable")
	}
}
