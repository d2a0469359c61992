package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowdesk/platform/pkg/logging"
)

// Execer is the query surface the ledger needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the same check-and-increment runs standalone or
// inside the booking transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Reserve atomically consumes one unit of slot capacity. The UPDATE carries
// the capacity guard so concurrent reservations serialize on the row; there
// is no read-modify-write in application code.
func Reserve(ctx context.Context, db Execer, slotID string) error {
	tag, err := db.Exec(ctx, `
		UPDATE slots
		SET booked_count = booked_count + 1, updated_at = now()
		WHERE id = $1 AND booked_count < capacity
	`, slotID)
	if err != nil {
		return fmt.Errorf("slots: reserve: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Either the slot is full or it does not exist; one more read decides.
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return fmt.Errorf("slots: reserve lookup: %w", err)
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotFull
}

// Release returns one unit of slot capacity, floored at zero. A release that
// would go negative yields ErrReleaseUnderflow so the caller can log the
// consistency breach rather than have it clamped away silently.
func Release(ctx context.Context, db Execer, slotID string) error {
	tag, err := db.Exec(ctx, `
		UPDATE slots
		SET booked_count = booked_count - 1, updated_at = now()
		WHERE id = $1 AND booked_count > 0
	`, slotID)
	if err != nil {
		return fmt.Errorf("slots: release: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return fmt.Errorf("slots: release lookup: %w", err)
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrReleaseUnderflow
}

// Ledger is the standalone capacity surface used by the admin slot
// endpoints. Booking transitions bypass it and call Reserve/Release on their
// own transaction.
type Ledger struct {
	db     Execer
	logger *logging.Logger
}

// NewLedger creates a ledger over the given executor.
func NewLedger(db Execer, logger *logging.Logger) *Ledger {
	if db == nil {
		panic("slots: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{db: db, logger: logger}
}

// Reserve consumes one capacity unit.
func (l *Ledger) Reserve(ctx context.Context, slotID string) error {
	return Reserve(ctx, l.db, slotID)
}

// Release frees one capacity unit. Underflow is logged and swallowed here;
// the slot is already at zero so there is nothing left to free.
func (l *Ledger) Release(ctx context.Context, slotID string) error {
	err := Release(ctx, l.db, slotID)
	if errors.Is(err, ErrReleaseUnderflow) {
		l.logger.Error("slot release underflow", "slot_id", slotID)
		return nil
	}
	return err
}

// SetCapacity updates a slot's capacity. Shrinking below the current booked
// count is refused.
func (l *Ledger) SetCapacity(ctx context.Context, slotID string, capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	tag, err := l.db.Exec(ctx, `
		UPDATE slots
		SET capacity = $2, updated_at = now()
		WHERE id = $1 AND booked_count <= $2
	`, slotID, capacity)
	if err != nil {
		return fmt.Errorf("slots: set capacity: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return fmt.Errorf("slots: set capacity lookup: %w", err)
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrCapacityBelowBooked
}

// Delete removes a slot, refusing while any capacity is reserved. The booked
// count is the sole gate regardless of the referencing bookings' statuses.
func (l *Ledger) Delete(ctx context.Context, slotID string) error {
	tag, err := l.db.Exec(ctx, `DELETE FROM slots WHERE id = $1 AND booked_count = 0`, slotID)
	if err != nil {
		return fmt.Errorf("slots: delete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
		return fmt.Errorf("slots: delete lookup: %w", err)
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotHasBookings
}
