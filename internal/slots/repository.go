package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface the repository needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores slots in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("slots: db required")
	}
	return &Repository{db: db}
}

// InsertBatch persists generated slots. Existing (salon, date, start) rows
// are skipped via ON CONFLICT DO NOTHING; the returned count covers only the
// rows actually created, so re-running generation over a covered range is a
// no-op rather than a failure.
func (r *Repository) InsertBatch(ctx context.Context, batch []*Slot) (int, error) {
	created := 0
	for _, s := range batch {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO slots (id, salon_id, slot_date, start_time, end_time, capacity)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (salon_id, slot_date, start_time) DO NOTHING
		`, s.ID, s.SalonID, s.Date, s.StartTime, s.EndTime, s.Capacity)
		if err != nil {
			return created, fmt.Errorf("slots: insert batch: %w", err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// Insert persists a single admin-created slot. A duplicate start time is a
// conflict, not a silent skip.
func (r *Repository) Insert(ctx context.Context, s *Slot) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO slots (id, salon_id, slot_date, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.SalonID, s.Date, s.StartTime, s.EndTime, s.Capacity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("slots: insert: %w", err)
	}
	return nil
}

const slotColumns = `id, salon_id, slot_date, start_time, end_time, capacity, booked_count, created_at, updated_at`

// GetByID fetches a single slot.
func (r *Repository) GetByID(ctx context.Context, id string) (*Slot, error) {
	row := r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("slots: select: %w", err)
	}
	return slot, nil
}

// ListBySalon returns a salon's slots over [from, to] ordered by date and
// start time.
func (r *Repository) ListBySalon(ctx context.Context, salonID string, from, to time.Time) ([]*Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE salon_id = $1 AND slot_date BETWEEN $2 AND $3
		ORDER BY slot_date, start_time
	`, salonID, from, to)
	if err != nil {
		return nil, fmt.Errorf("slots: list: %w", err)
	}
	defer rows.Close()

	var out []*Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("slots: scan: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*Slot, error) {
	var s Slot
	if err := row.Scan(
		&s.ID,
		&s.SalonID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Capacity,
		&s.BookedCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
