package salons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateStartsPending(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO salons").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	repo := NewRepository(mock)
	salon, err := repo.Create(context.Background(), &CreateSalonRequest{Name: "Glow Studio"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if salon.Status != StatusPending {
		t.Fatalf("status = %q, want pending", salon.Status)
	}
	if salon.DefaultSlotCapacity != 1 {
		t.Fatalf("capacity = %d, want default 1", salon.DefaultSlotCapacity)
	}
}

func TestCreateRequiresName(t *testing.T) {
	repo := NewRepository(newMock(t))
	_, err := repo.Create(context.Background(), &CreateSalonRequest{Name: "  "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetByIDDecodesHours(t *testing.T) {
	mock := newMock(t)
	hoursJSON := []byte(`{"monday":{"open":"09:00","close":"17:00"}}`)
	mock.ExpectQuery("SELECT .+ FROM salons WHERE id").WithArgs("salon-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "address", "phone", "status", "operating_hours",
			"default_slot_capacity", "image_url", "created_at", "updated_at",
		}).AddRow("salon-1", "Glow Studio", "1 Main St", "+15550001111", StatusApproved,
			hoursJSON, 2, "", time.Now(), time.Now()))

	repo := NewRepository(mock)
	salon, err := repo.GetByID(context.Background(), "salon-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	open, _, ok := salon.OperatingHours.Window(time.Monday)
	if !ok || open != 540 {
		t.Fatalf("hours not decoded: %+v", salon.OperatingHours)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM salons WHERE id").WithArgs("salon-404").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)
	if _, err := repo.GetByID(context.Background(), "salon-404"); !errors.Is(err, ErrSalonNotFound) {
		t.Fatalf("expected ErrSalonNotFound, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	repo := NewRepository(newMock(t))
	if err := repo.UpdateStatus(context.Background(), "salon-1", "vanished"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatusMissingSalon(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("UPDATE salons SET status").WithArgs("salon-404", StatusApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepository(mock)
	if err := repo.UpdateStatus(context.Background(), "salon-404", StatusApproved); !errors.Is(err, ErrSalonNotFound) {
		t.Fatalf("expected ErrSalonNotFound, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM salons WHERE 1=1 AND status").
		WithArgs(StatusApproved, 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "address", "phone", "status", "operating_hours",
			"default_slot_capacity", "image_url", "created_at", "updated_at",
		}).AddRow("salon-1", "Glow Studio", "", "", StatusApproved, []byte(`{}`), 1, "", time.Now(), time.Now()))

	repo := NewRepository(mock)
	list, err := repo.List(context.Background(), ListFilter{Status: StatusApproved})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "salon-1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
