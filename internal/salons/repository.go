package salons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool the repository needs; pgxmock satisfies it in
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores salons in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("salons: db required")
	}
	return &Repository{db: db}
}

// CreateSalonRequest carries the fields a salon admin submits on signup.
type CreateSalonRequest struct {
	Name                string      `json:"name"`
	Address             string      `json:"address"`
	Phone               string      `json:"phone"`
	OperatingHours      WeeklyHours `json:"operating_hours"`
	DefaultSlotCapacity int         `json:"default_slot_capacity"`
}

// Validate checks the request before any row is written.
func (r *CreateSalonRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.DefaultSlotCapacity < 0 {
		return fmt.Errorf("%w: default_slot_capacity must not be negative", ErrValidation)
	}
	return nil
}

// Create inserts a new salon in pending state.
func (r *Repository) Create(ctx context.Context, req *CreateSalonRequest) (*Salon, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	capacity := req.DefaultSlotCapacity
	if capacity == 0 {
		capacity = 1
	}
	hours := req.OperatingHours
	if hours == nil {
		hours = WeeklyHours{}
	}
	hoursJSON, err := json.Marshal(hours)
	if err != nil {
		return nil, fmt.Errorf("salons: encode operating hours: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO salons (id, name, address, phone, status, operating_hours, default_slot_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Address,
		req.Phone,
		StatusPending,
		hoursJSON,
		capacity,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("salons: insert failed: %w", err)
	}

	return &Salon{
		ID:                  id.String(),
		Name:                req.Name,
		Address:             req.Address,
		Phone:               req.Phone,
		Status:              StatusPending,
		OperatingHours:      hours,
		DefaultSlotCapacity: capacity,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

const salonColumns = `id, name, address, phone, status, operating_hours, default_slot_capacity, image_url, created_at, updated_at`

// GetByID fetches a single salon.
func (r *Repository) GetByID(ctx context.Context, id string) (*Salon, error) {
	query := `SELECT ` + salonColumns + ` FROM salons WHERE id = $1`
	salon, err := scanSalon(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSalonNotFound
		}
		return nil, fmt.Errorf("salons: select failed: %w", err)
	}
	return salon, nil
}

// ListFilter narrows and pages the salon listing.
type ListFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

// List returns salons matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Salon, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `SELECT ` + salonColumns + ` FROM salons WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("salons: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Salon
	for rows.Next() {
		salon, err := scanSalon(rows)
		if err != nil {
			return nil, fmt.Errorf("salons: scan failed: %w", err)
		}
		out = append(out, salon)
	}
	return out, rows.Err()
}

// UpdateStatus moves a salon through moderation.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	tag, err := r.db.Exec(ctx, `UPDATE salons SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("salons: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSalonNotFound
	}
	return nil
}

// UpdateHours replaces the weekly operating-hours map.
func (r *Repository) UpdateHours(ctx context.Context, id string, hours WeeklyHours) error {
	hoursJSON, err := json.Marshal(hours)
	if err != nil {
		return fmt.Errorf("salons: encode operating hours: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE salons SET operating_hours = $2, updated_at = now() WHERE id = $1`, id, hoursJSON)
	if err != nil {
		return fmt.Errorf("salons: update hours: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSalonNotFound
	}
	return nil
}

// UpdateImageURL records the uploaded salon image location.
func (r *Repository) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	tag, err := r.db.Exec(ctx, `UPDATE salons SET image_url = $2, updated_at = now() WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("salons: update image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSalonNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSalon(row rowScanner) (*Salon, error) {
	var (
		salon     Salon
		hoursJSON []byte
	)
	if err := row.Scan(
		&salon.ID,
		&salon.Name,
		&salon.Address,
		&salon.Phone,
		&salon.Status,
		&hoursJSON,
		&salon.DefaultSlotCapacity,
		&salon.ImageURL,
		&salon.CreatedAt,
		&salon.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &salon.OperatingHours); err != nil {
			return nil, fmt.Errorf("salons: decode operating hours: %w", err)
		}
	}
	if salon.OperatingHours == nil {
		salon.OperatingHours = WeeklyHours{}
	}
	return &salon, nil
}
