package notify

import (
	"context"
	"fmt"

	"github.com/glowdesk/platform/internal/bookings"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/users"
	"github.com/glowdesk/platform/pkg/logging"
)

// UserSource resolves booking owners to their phone numbers.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// SalonSource resolves salon names for message copy.
type SalonSource interface {
	GetByID(ctx context.Context, id string) (*salons.Salon, error)
}

// Service composes and sends booking confirmations. Delivery failures are
// logged, never surfaced; a missed text must not affect a committed booking.
type Service struct {
	sms      SMSSender
	userSrc  UserSource
	salonSrc SalonSource
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(sms SMSSender, userSrc UserSource, salonSrc SalonSource, logger *logging.Logger) *Service {
	if sms == nil {
		panic("notify: sms sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sms: sms, userSrc: userSrc, salonSrc: salonSrc, logger: logger}
}

// BookingConfirmed texts the customer their booking details and check-in
// code.
func (s *Service) BookingConfirmed(ctx context.Context, booking *bookings.Booking) {
	user, err := s.userSrc.GetByID(ctx, booking.UserID)
	if err != nil {
		s.logger.Error("confirmation skipped, no user", "booking_id", booking.ID, "error", err)
		return
	}

	salonName := "the salon"
	if salon, err := s.salonSrc.GetByID(ctx, booking.SalonID); err == nil {
		salonName = salon.Name
	} else {
		s.logger.Error("confirmation missing salon name", "booking_id", booking.ID, "error", err)
	}

	body := fmt.Sprintf("Your booking at %s on %s at %s is confirmed. Show code %s at check-in.",
		salonName,
		booking.BookingDate.Format("Monday, January 2"),
		booking.StartTime.Format("3:04 PM"),
		booking.QRCode,
	)
	if err := s.sms.Send(ctx, user.Phone, body); err != nil {
		s.logger.Error("confirmation delivery failed", "booking_id", booking.ID, "error", err)
	}
}
