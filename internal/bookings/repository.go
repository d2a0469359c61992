package bookings

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/services"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/pkg/logging"
)

// DB is the pool surface the repository needs. Lifecycle mutations run inside
// transactions so the capacity counter and the booking row move together.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores bookings and drives their lifecycle against the slots
// ledger.
type Repository struct {
	db     DB
	logger *logging.Logger
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB, logger *logging.Logger) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger}
}

const bookingColumns = `id, user_id, salon_id, service_id, slot_id, staff_id,
	booking_date, start_time, end_time, status, qr_code, notes,
	cancelled_at, service_started_at, completed_at, completed_by,
	created_at, updated_at`

// qrCodeAttempts bounds retries on qr_code unique violations. Codes carry 128
// random bits, so a second collision in a row means something is broken.
const qrCodeAttempts = 3

// CreateParams describes a booking request after authentication.
type CreateParams struct {
	UserID    string
	SalonID   string
	ServiceID string
	SlotID    string
	Notes     string
}

// Validate rejects structurally incomplete requests before any I/O.
func (p *CreateParams) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if p.SalonID == "" {
		return fmt.Errorf("%w: salon_id is required", ErrValidation)
	}
	if p.ServiceID == "" {
		return fmt.Errorf("%w: service_id is required", ErrValidation)
	}
	if p.SlotID == "" {
		return fmt.Errorf("%w: slot_id is required", ErrValidation)
	}
	return nil
}

// Create books a slot. Salon approval, service activity, slot capacity and the
// one-active-booking-per-slot rule are all checked inside one transaction; a
// failure at any step leaves the capacity counter untouched.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Booking, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < qrCodeAttempts; attempt++ {
		code, err := generateQRCode()
		if err != nil {
			return nil, fmt.Errorf("bookings: qr code: %w", err)
		}
		booking, err := r.createOnce(ctx, params, code)
		if isUniqueViolation(err, "bookings_qr_code_unique") {
			r.logger.Error("qr code collision, retrying", "attempt", attempt+1)
			continue
		}
		return booking, err
	}
	return nil, ErrQRCodeExhausted
}

func (r *Repository) createOnce(ctx context.Context, params CreateParams, qrCode string) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	var salonStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM salons WHERE id = $1`, params.SalonID).Scan(&salonStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, salons.ErrSalonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: check salon: %w", err)
	}
	if salons.Status(salonStatus) != salons.StatusApproved {
		return nil, salons.ErrSalonUnavailable
	}

	var (
		serviceSalonID  string
		durationMinutes int
		serviceActive   bool
	)
	err = tx.QueryRow(ctx, `SELECT salon_id, duration_minutes, is_active FROM services WHERE id = $1`, params.ServiceID).
		Scan(&serviceSalonID, &durationMinutes, &serviceActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: check service: %w", err)
	}
	if serviceSalonID != params.SalonID {
		return nil, services.ErrServiceNotFound
	}
	if !serviceActive {
		return nil, services.ErrServiceInactive
	}

	var (
		slotSalonID string
		slotDate    time.Time
		slotStart   time.Time
	)
	err = tx.QueryRow(ctx, `SELECT salon_id, slot_date, start_time FROM slots WHERE id = $1`, params.SlotID).
		Scan(&slotSalonID, &slotDate, &slotStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, slots.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: check slot: %w", err)
	}
	if slotSalonID != params.SalonID {
		return nil, slots.ErrSlotNotFound
	}

	if err := slots.Reserve(ctx, tx, params.SlotID); err != nil {
		return nil, err
	}

	booking := &Booking{
		ID:          uuid.New().String(),
		UserID:      params.UserID,
		SalonID:     params.SalonID,
		ServiceID:   params.ServiceID,
		SlotID:      params.SlotID,
		BookingDate: slotDate,
		StartTime:   slotStart,
		EndTime:     slotStart.Add(time.Duration(durationMinutes) * time.Minute),
		Status:      StatusBooked,
		QRCode:      qrCode,
		Notes:       params.Notes,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, salon_id, service_id, slot_id, booking_date, start_time, end_time, status, qr_code, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, booking.ID, booking.UserID, booking.SalonID, booking.ServiceID, booking.SlotID,
		booking.BookingDate, booking.StartTime, booking.EndTime, booking.Status, booking.QRCode, booking.Notes).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if isUniqueViolation(err, "idx_bookings_active_user_slot") {
		return nil, ErrDuplicateBooking
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("bookings: commit create: %w", err)
	}
	return booking, nil
}

// Cancel moves a booked booking to cancelled and returns its capacity unit to
// the slot, both inside one transaction. A release underflow is logged and the
// cancellation still commits; the counter is already at zero.
func (r *Repository) Cancel(ctx context.Context, id string) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin cancel: %w", err)
	}
	defer tx.Rollback(ctx)

	booking, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(booking.Status, StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	err = tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2, cancelled_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING cancelled_at, updated_at
	`, id, StatusCancelled).Scan(&booking.CancelledAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("bookings: mark cancelled: %w", err)
	}
	booking.Status = StatusCancelled

	if err := slots.Release(ctx, tx, booking.SlotID); err != nil {
		if !errors.Is(err, slots.ErrReleaseUnderflow) {
			return nil, err
		}
		r.logger.Error("slot release underflow on cancel", "booking_id", id, "slot_id", booking.SlotID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("bookings: commit cancel: %w", err)
	}
	return booking, nil
}

// StartService moves a booked booking to in_progress at check-in. Slot
// capacity stays consumed.
func (r *Repository) StartService(ctx context.Context, id, staffID string) (*Booking, error) {
	var staff any
	if staffID != "" {
		staff = staffID
	}
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2, service_started_at = now(), staff_id = COALESCE($3, staff_id), updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+bookingColumns+`
	`, id, StatusInProgress, staff, StatusBooked)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.transitionFailure(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: start service: %w", err)
	}
	return booking, nil
}

// Finish closes out a booking as completed or no_show. Capacity is not
// released: the visit window was held, whether or not the customer showed.
func (r *Repository) Finish(ctx context.Context, id, completedBy string, to Status) (*Booking, error) {
	if to != StatusCompleted && to != StatusNoShow {
		return nil, ErrInvalidTransition
	}
	var by any
	if completedBy != "" {
		by = completedBy
	}
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2, completed_at = now(), completed_by = $3, updated_at = now()
		WHERE id = $1 AND status IN ($4, $5)
		RETURNING `+bookingColumns+`
	`, id, to, by, StatusBooked, StatusInProgress)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.transitionFailure(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: finish: %w", err)
	}
	return booking, nil
}

// RescheduleParams moves a booked booking to a different slot and optionally a
// different service at the same salon.
type RescheduleParams struct {
	SlotID    string
	ServiceID string
}

// Reschedule releases the old slot and reserves the new one in a single
// transaction. If the new slot is full the transaction rolls back and the
// original reservation is untouched.
func (r *Repository) Reschedule(ctx context.Context, id string, params RescheduleParams) (*Booking, error) {
	if params.SlotID == "" {
		return nil, fmt.Errorf("%w: slot_id is required", ErrValidation)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin reschedule: %w", err)
	}
	defer tx.Rollback(ctx)

	booking, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != StatusBooked {
		return nil, ErrInvalidTransition
	}

	serviceID := booking.ServiceID
	if params.ServiceID != "" {
		serviceID = params.ServiceID
	}
	var (
		serviceSalonID  string
		durationMinutes int
		serviceActive   bool
	)
	err = tx.QueryRow(ctx, `SELECT salon_id, duration_minutes, is_active FROM services WHERE id = $1`, serviceID).
		Scan(&serviceSalonID, &durationMinutes, &serviceActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: check service: %w", err)
	}
	if serviceSalonID != booking.SalonID {
		return nil, services.ErrServiceNotFound
	}
	if !serviceActive {
		return nil, services.ErrServiceInactive
	}

	var (
		slotSalonID string
		slotDate    time.Time
		slotStart   time.Time
	)
	err = tx.QueryRow(ctx, `SELECT salon_id, slot_date, start_time FROM slots WHERE id = $1`, params.SlotID).
		Scan(&slotSalonID, &slotDate, &slotStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, slots.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: check slot: %w", err)
	}
	if slotSalonID != booking.SalonID {
		return nil, slots.ErrSlotNotFound
	}

	if params.SlotID != booking.SlotID {
		if err := slots.Release(ctx, tx, booking.SlotID); err != nil {
			if !errors.Is(err, slots.ErrReleaseUnderflow) {
				return nil, err
			}
			r.logger.Error("slot release underflow on reschedule", "booking_id", id, "slot_id", booking.SlotID)
		}
		if err := slots.Reserve(ctx, tx, params.SlotID); err != nil {
			return nil, err
		}
	}

	booking.ServiceID = serviceID
	booking.SlotID = params.SlotID
	booking.BookingDate = slotDate
	booking.StartTime = slotStart
	booking.EndTime = slotStart.Add(time.Duration(durationMinutes) * time.Minute)
	err = tx.QueryRow(ctx, `
		UPDATE bookings
		SET service_id = $2, slot_id = $3, booking_date = $4, start_time = $5, end_time = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, booking.ServiceID, booking.SlotID, booking.BookingDate, booking.StartTime, booking.EndTime).
		Scan(&booking.UpdatedAt)
	if isUniqueViolation(err, "idx_bookings_active_user_slot") {
		return nil, ErrDuplicateBooking
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: update reschedule: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("bookings: commit reschedule: %w", err)
	}
	return booking, nil
}

// GetByID fetches a single booking.
func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: select: %w", err)
	}
	return booking, nil
}

// GetByQRCode resolves a check-in scan to its booking.
func (r *Repository) GetByQRCode(ctx context.Context, code string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE qr_code = $1`, code)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: select by qr: %w", err)
	}
	return booking, nil
}

// ListByUser returns a user's bookings, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]*Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY booking_date DESC, start_time DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list by user: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBySalonDay returns a salon's bookings for one calendar day, optionally
// filtered by status.
func (r *Repository) ListBySalonDay(ctx context.Context, salonID string, day time.Time, status Status) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE salon_id = $1 AND booking_date = $2`
	args := []any{salonID, day}
	if status != "" {
		query += ` AND status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list by salon day: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// transitionFailure decides why a guarded status UPDATE matched nothing.
func (r *Repository) transitionFailure(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("bookings: transition lookup: %w", err)
	}
	if !exists {
		return ErrBookingNotFound
	}
	return ErrInvalidTransition
}

// lockBooking reads a booking FOR UPDATE so concurrent transitions serialize
// on the row.
func lockBooking(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: lock: %w", err)
	}
	return booking, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var (
		b           Booking
		staffID     sql.NullString
		cancelled   sql.NullTime
		started     sql.NullTime
		completed   sql.NullTime
		completedBy sql.NullString
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.SalonID,
		&b.ServiceID,
		&b.SlotID,
		&staffID,
		&b.BookingDate,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.QRCode,
		&b.Notes,
		&cancelled,
		&started,
		&completed,
		&completedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.StaffID = staffID.String
	b.CompletedBy = completedBy.String
	if cancelled.Valid {
		b.CancelledAt = &cancelled.Time
	}
	if started.Valid {
		b.ServiceStartedAt = &started.Time
	}
	if completed.Valid {
		b.CompletedAt = &completed.Time
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	var list []*Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		list = append(list, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows: %w", err)
	}
	return list, nil
}

// generateQRCode issues a random check-in token. 16 bytes of entropy keeps
// collisions out of reach; the unique constraint is the backstop.
func generateQRCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "bk_" + hex.EncodeToString(buf), nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
