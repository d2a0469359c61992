package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/services"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/pkg/logging"
)

var (
	testDay   = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	testStart = time.Date(2000, time.January, 1, 9, 0, 0, 0, time.UTC)
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

func newRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	return NewRepository(mock, logging.Default()), mock
}

var bookingCols = []string{
	"id", "user_id", "salon_id", "service_id", "slot_id", "staff_id",
	"booking_date", "start_time", "end_time", "status", "qr_code", "notes",
	"cancelled_at", "service_started_at", "completed_at", "completed_by",
	"created_at", "updated_at",
}

func bookingRow(status Status) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(bookingCols).AddRow(
		"bk-1", "user-1", "salon-1", "svc-1", "slot-1", nil,
		testDay, testStart, testStart.Add(time.Hour), status, "bk_abc123", "",
		nil, nil, nil, nil,
		now, now,
	)
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func ptrTime(t time.Time) *time.Time { return &t }

func validParams() CreateParams {
	return CreateParams{UserID: "user-1", SalonID: "salon-1", ServiceID: "svc-1", SlotID: "slot-1"}
}

func expectPreflight(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery("SELECT status FROM salons").WithArgs("salon-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectQuery("SELECT salon_id, duration_minutes, is_active FROM services").WithArgs("svc-1").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "duration_minutes", "is_active"}).AddRow("salon-1", 60, true))
	mock.ExpectQuery("SELECT salon_id, slot_date, start_time FROM slots").WithArgs("slot-1").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "slot_date", "start_time"}).AddRow("salon-1", testDay, testStart))
}

func TestCreateBooksSlot(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	expectPreflight(mock)
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").WithArgs(anyArgs(11)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	booking, err := repo.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.Status != StatusBooked {
		t.Fatalf("status = %q, want booked", booking.Status)
	}
	if got := booking.EndTime.Sub(booking.StartTime); got != time.Hour {
		t.Fatalf("duration = %v, want 1h from the service", got)
	}
	if !strings.HasPrefix(booking.QRCode, "bk_") {
		t.Fatalf("qr code %q missing prefix", booking.QRCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateRejectsPendingSalon(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM salons").WithArgs("salon-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), validParams())
	if !errors.Is(err, salons.ErrSalonUnavailable) {
		t.Fatalf("expected ErrSalonUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateRejectsInactiveService(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM salons").WithArgs("salon-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectQuery("SELECT salon_id, duration_minutes, is_active FROM services").WithArgs("svc-1").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "duration_minutes", "is_active"}).AddRow("salon-1", 60, false))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), validParams())
	if !errors.Is(err, services.ErrServiceInactive) {
		t.Fatalf("expected ErrServiceInactive, got %v", err)
	}
}

func TestCreateFullSlotRollsBack(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	expectPreflight(mock)
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("slot-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), validParams())
	if !errors.Is(err, slots.ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateDuplicateActiveBooking(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	expectPreflight(mock)
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_bookings_active_user_slot"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), validParams())
	if !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}
}

func TestCreateRetriesQRCollision(t *testing.T) {
	repo, mock := newRepo(t)

	// First attempt collides on the qr_code constraint, the whole
	// transaction rolls back, and a fresh code succeeds.
	mock.ExpectBegin()
	expectPreflight(mock)
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_qr_code_unique"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectPreflight(mock)
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO bookings").WithArgs(anyArgs(11)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	booking, err := repo.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.QRCode == "" {
		t.Fatal("expected a qr code")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusBooked))
	mock.ExpectQuery("UPDATE bookings").WithArgs("bk-1", StatusCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"cancelled_at", "updated_at"}).AddRow(ptrTime(time.Now()), time.Now()))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	booking, err := repo.Cancel(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if booking.Status != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", booking.Status)
	}
	if booking.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCancelCancelledBookingRejected(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusCancelled))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "bk-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCancelCommitsDespiteUnderflow(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusBooked))
	mock.ExpectQuery("UPDATE bookings").WithArgs("bk-1", StatusCancelled).
		WillReturnRows(pgxmock.NewRows([]string{"cancelled_at", "updated_at"}).AddRow(ptrTime(time.Now()), time.Now()))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("slot-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	if _, err := repo.Cancel(context.Background(), "bk-1"); err != nil {
		t.Fatalf("cancel should floor the counter and commit, got %v", err)
	}
}

func TestStartServiceFromBooked(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("UPDATE bookings").WithArgs(anyArgs(4)...).WillReturnRows(bookingRow(StatusInProgress))

	booking, err := repo.StartService(context.Background(), "bk-1", "staff-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if booking.Status != StatusInProgress {
		t.Fatalf("status = %q, want in_progress", booking.Status)
	}
}

func TestStartServiceInvalidTransition(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("UPDATE bookings").WithArgs(anyArgs(4)...).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("bk-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.StartService(context.Background(), "bk-1", "staff-1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartServiceMissingBooking(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("UPDATE bookings").WithArgs(anyArgs(4)...).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("bk-404").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.StartService(context.Background(), "bk-404", "staff-1")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestFinishNoShowKeepsCapacity(t *testing.T) {
	repo, mock := newRepo(t)

	// A single UPDATE and no slot mutation: the held window is not
	// returned to inventory.
	mock.ExpectQuery("UPDATE bookings").WithArgs(anyArgs(5)...).WillReturnRows(bookingRow(StatusNoShow))

	booking, err := repo.Finish(context.Background(), "bk-1", "staff-1", StatusNoShow)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if booking.Status != StatusNoShow {
		t.Fatalf("status = %q, want no_show", booking.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRejectsOtherTargets(t *testing.T) {
	repo, _ := newRepo(t)

	if _, err := repo.Finish(context.Background(), "bk-1", "staff-1", StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRescheduleFullSlotKeepsOriginal(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusBooked))
	mock.ExpectQuery("SELECT salon_id, duration_minutes, is_active FROM services").WithArgs("svc-1").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "duration_minutes", "is_active"}).AddRow("salon-1", 60, true))
	mock.ExpectQuery("SELECT salon_id, slot_date, start_time FROM slots").WithArgs("slot-2").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "slot_date", "start_time"}).AddRow("salon-1", testDay, testStart))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-2").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("slot-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Reschedule(context.Background(), "bk-1", RescheduleParams{SlotID: "slot-2"})
	if !errors.Is(err, slots.ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRescheduleMovesSlot(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusBooked))
	mock.ExpectQuery("SELECT salon_id, duration_minutes, is_active FROM services").WithArgs("svc-1").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "duration_minutes", "is_active"}).AddRow("salon-1", 45, true))
	mock.ExpectQuery("SELECT salon_id, slot_date, start_time FROM slots").WithArgs("slot-2").
		WillReturnRows(pgxmock.NewRows([]string{"salon_id", "slot_date", "start_time"}).AddRow("salon-1", testDay, testStart.Add(2*time.Hour)))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE slots").WithArgs("slot-2").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("UPDATE bookings").WithArgs(anyArgs(6)...).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	booking, err := repo.Reschedule(context.Background(), "bk-1", RescheduleParams{SlotID: "slot-2"})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if booking.SlotID != "slot-2" {
		t.Fatalf("slot = %q, want slot-2", booking.SlotID)
	}
	if got := booking.EndTime.Sub(booking.StartTime); got != 45*time.Minute {
		t.Fatalf("duration = %v, want 45m", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRescheduleRejectsNonBooked(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").WithArgs("bk-1").WillReturnRows(bookingRow(StatusInProgress))
	mock.ExpectRollback()

	_, err := repo.Reschedule(context.Background(), "bk-1", RescheduleParams{SlotID: "slot-2"})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestGetByQRCode(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("FROM bookings WHERE qr_code").WithArgs("bk_abc123").WillReturnRows(bookingRow(StatusBooked))

	booking, err := repo.GetByQRCode(context.Background(), "bk_abc123")
	if err != nil {
		t.Fatalf("get by qr: %v", err)
	}
	if booking.ID != "bk-1" {
		t.Fatalf("id = %q, want bk-1", booking.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	repo, _ := newRepo(t)

	params := validParams()
	params.SlotID = ""
	_, err := repo.Create(context.Background(), params)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
