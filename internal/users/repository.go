package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowdesk/platform/internal/identity"
)

// DB is the pgx surface the repository needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores users in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("users: db required")
	}
	return &Repository{db: db}
}

const userColumns = `id, phone, name, role, salon_id, created_at, updated_at`

// GetOrCreateByPhone returns the account for a verified phone number,
// creating an end-user account on first login.
func (r *Repository) GetOrCreateByPhone(ctx context.Context, phone string) (*User, error) {
	user, err := r.getByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	id := uuid.New()
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, phone, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE SET updated_at = now()
		RETURNING `+userColumns+`
	`, id, phone, identity.RoleUser)
	user, err = scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("users: upsert by phone: %w", err)
	}
	return user, nil
}

// GetByID fetches a single user.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: select: %w", err)
	}
	return user, nil
}

func (r *Repository) getByPhone(ctx context.Context, phone string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: select by phone: %w", err)
	}
	return user, nil
}

// UpdateName sets the display name.
func (r *Repository) UpdateName(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("users: update name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AssignRole grants a role and optional salon membership (super admin
// operation).
func (r *Repository) AssignRole(ctx context.Context, id string, role identity.Role, salonID string) error {
	var salon any
	if salonID != "" {
		salon = salonID
	}
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2, salon_id = $3, updated_at = now() WHERE id = $1`, id, role, salon)
	if err != nil {
		return fmt.Errorf("users: assign role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		salonID sql.NullString
	)
	if err := row.Scan(
		&u.ID,
		&u.Phone,
		&u.Name,
		&u.Role,
		&salonID,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.SalonID = salonID.String
	return &u, nil
}
