package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface the repository needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores salon services in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("services: db required")
	}
	return &Repository{db: db}
}

// CreateServiceRequest carries the fields for a new catalog entry.
type CreateServiceRequest struct {
	SalonID         string `json:"-"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

// Validate checks the request before any row is written.
func (r *CreateServiceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
	}
	if r.PriceCents < 0 {
		return fmt.Errorf("%w: price_cents must not be negative", ErrValidation)
	}
	return nil
}

// Create inserts a new active service.
func (r *Repository) Create(ctx context.Context, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO services (id, salon_id, name, description, duration_minutes, price_cents, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.SalonID,
		req.Name,
		req.Description,
		req.DurationMinutes,
		req.PriceCents,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("services: insert failed: %w", err)
	}

	return &Service{
		ID:              id.String(),
		SalonID:         req.SalonID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsActive:        true,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

const serviceColumns = `id, salon_id, name, description, duration_minutes, price_cents, is_active, created_at, updated_at`

// GetByID fetches a single service.
func (r *Repository) GetByID(ctx context.Context, id string) (*Service, error) {
	row := r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("services: select failed: %w", err)
	}
	return svc, nil
}

// ListBySalon returns a salon's catalog. Inactive entries are included only
// when includeInactive is set (the salon admin view).
func (r *Repository) ListBySalon(ctx context.Context, salonID string, includeInactive bool) ([]*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE salon_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, salonID)
	if err != nil {
		return nil, fmt.Errorf("services: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("services: scan failed: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// UpdateServiceRequest applies a partial update.
type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// Update applies the non-nil fields of req to the service.
func (r *Repository) Update(ctx context.Context, id string, req *UpdateServiceRequest) (*Service, error) {
	svc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
		}
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, fmt.Errorf("%w: price_cents must not be negative", ErrValidation)
		}
		svc.PriceCents = *req.PriceCents
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE services
		SET name = $2, description = $3, duration_minutes = $4, price_cents = $5, is_active = $6, updated_at = now()
		WHERE id = $1
	`, id, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.IsActive)
	if err != nil {
		return nil, fmt.Errorf("services: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*Service, error) {
	var s Service
	if err := row.Scan(
		&s.ID,
		&s.SalonID,
		&s.Name,
		&s.Description,
		&s.DurationMinutes,
		&s.PriceCents,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
