package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: domainRepo.ErrDuplicateKey},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: domainRepo.ErrForeignKey},
		{name: "row level security", err: &pgconn.PgError{Code: "42501"}, want: domainRepo.ErrPermissionDenied},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, want: domainRepo.ErrStoreUnavailable},
		{name: "statement timeout", err: &pgconn.PgError{Code: "57014"}, want: domainRepo.ErrStoreUnavailable},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: domainRepo.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_PassesThroughUnknown(t *testing.T) {
	plain := errors.New("syntax error")
	assert.Equal(t, plain, classifyError(plain))

	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(check), classifyError(check))

	assert.NoError(t, classifyError(nil))
}

func TestTimeSlotRepository_Claim(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)
	slotID := uuid.New()

	mock.ExpectExec(`UPDATE "time_slots" SET .*"is_available"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Claim(context.Background(), slotID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepository_ClaimLostRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec(`UPDATE "time_slots" SET .*"is_available"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Claim(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepository_FindAvailableByIDTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "time_slots" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "is_available"}))

	slot, err := repo.FindAvailableByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, slot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepository_FindAvailableByIDConnectionLost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimeSlotRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "time_slots" WHERE`).
		WillReturnError(&pgconn.PgError{Code: "08003"})

	_, err := repo.FindAvailableByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainRepo.ErrStoreUnavailable)
}

func TestAppointmentRepository_CreateClassifiesErrors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{code: "23505", want: domainRepo.ErrDuplicateKey},
		{code: "23503", want: domainRepo.ErrForeignKey},
		{code: "42501", want: domainRepo.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewAppointmentRepository(db)

			mock.ExpectQuery(`INSERT INTO "appointments"`).
				WillReturnError(&pgconn.PgError{Code: tt.code})

			err := repo.Create(context.Background(), &entity.Appointment{
				DoctorID:         uuid.New(),
				TimeSlotID:       uuid.New(),
				PatientFirstName: "Grace",
				PatientLastName:  "Hopper",
				PatientEmail:     "grace@example.com",
				PatientPhone:     "555-0100",
				Status:           entity.AppointmentStatusPending,
			})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAppointmentRepository_CreateReadsBackID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	appointment := &entity.Appointment{
		DoctorID:   uuid.New(),
		TimeSlotID: uuid.New(),
		Status:     entity.AppointmentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), appointment))
	assert.Equal(t, id, appointment.ID)
}

func TestAppointmentRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(`UPDATE "appointments" SET .*"status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.TransitionStatus(context.Background(), uuid.New(),
		[]entity.AppointmentStatus{entity.AppointmentStatusPending}, entity.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_CancelAndRelease(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","time_slot_id" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_slot_id"}).AddRow(id.String(), slotID.String()))
	mock.ExpectExec(`UPDATE "appointments" SET .*"status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "time_slots" SET .*"is_available".*WHERE .*NOT EXISTS \(SELECT 1 FROM appointments WHERE time_slot_id = .* AND status <> `).
		WithArgs(true, sqlmock.AnyArg(), slotID, slotID, string(entity.AppointmentStatusCancelled)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.CancelAndRelease(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_CancelAndReleaseAlreadyCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","time_slot_id" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_slot_id"}).AddRow(id.String(), uuid.NewString()))
	mock.ExpectExec(`UPDATE "appointments" SET .*"status"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	affected, err := repo.CancelAndRelease(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_CancelKeepsSlotHeldByAnotherAppointment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","time_slot_id" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_slot_id"}).AddRow(id.String(), slotID.String()))
	mock.ExpectExec(`UPDATE "appointments" SET .*"status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "time_slots" SET .*NOT EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	affected, err := repo.CancelAndRelease(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_DeleteAndRelease(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","time_slot_id","status" FROM "appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "time_slot_id", "status"}).
			AddRow(id.String(), slotID.String(), string(entity.AppointmentStatusConfirmed)))
	mock.ExpectExec(`DELETE FROM "appointments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "time_slots" SET .*"is_available".*NOT EXISTS \(SELECT 1 FROM appointments`).
		WithArgs(true, sqlmock.AnyArg(), slotID, slotID, string(entity.AppointmentStatusCancelled)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.DeleteAndRelease(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUserRepository_FindAllEmails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminUserRepository(db)

	mock.ExpectQuery(`SELECT "email" FROM "admin_users"`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("a@clinic.test").AddRow("b@clinic.test"))

	emails, err := repo.FindAllEmails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a@clinic.test", "b@clinic.test"}, emails)
}
