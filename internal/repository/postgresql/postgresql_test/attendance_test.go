package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/dhanush-hc/hrms-backend-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this package run against a real database and skip when
// TEST_DATABASE_URL is not set. The schema (attendances, employees, the
// unique index on (employee_id, date)) must already be migrated.

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database tests")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func cleanupTestData(t *testing.T, db *database.DB) {
	ctx := context.Background()

	_, err := db.Exec(ctx, "TRUNCATE TABLE attendances CASCADE")
	require.NoError(t, err)

	_, err = db.Exec(ctx, "TRUNCATE TABLE employees CASCADE")
	require.NoError(t, err)
}

func createTestEmployee(t *testing.T, ctx context.Context, db *database.DB, fullName string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(ctx, `
		INSERT INTO employees (id, full_name, department, is_active, shift_name, created_at, updated_at)
		VALUES ($1, $2, 'Engineering', true, 'morning', NOW(), NOW())
	`, id, fullName)
	require.NoError(t, err)
	return id
}

func pendingRecord(employeeID string, date time.Time) attendance.Record {
	return attendance.Record{
		EmployeeID:       employeeID,
		Date:             date,
		CheckIn:          date.Add(11*time.Hour + 30*time.Minute),
		Status:           attendance.StatusLate,
		ApprovalState:    attendance.ApprovalPending,
		WorkMode:         attendance.WorkModeOffice,
		ShiftName:        "morning",
		LateMinutes:      30,
		RequiresApproval: true,
	}
}

func TestAttendanceRepository_Create_DuplicateDay(t *testing.T) {
	db := openTestDB(t)
	defer cleanupTestData(t, db)
	cleanupTestData(t, db)

	ctx := context.Background()
	empID := createTestEmployee(t, ctx, db, "Asha Rao")
	repo := postgresql.NewAttendanceRepository(db)

	date := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, pendingRecord(empID, date))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = repo.Create(ctx, pendingRecord(empID, date))
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)
}

func TestAttendanceRepository_FraudIndicators_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	defer cleanupTestData(t, db)
	cleanupTestData(t, db)

	ctx := context.Background()
	empID := createTestEmployee(t, ctx, db, "Asha Rao")
	repo := postgresql.NewAttendanceRepository(db)

	rec := pendingRecord(empID, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC))
	rec.FraudSuspected = true
	rec.FraudIndicators = []attendance.FraudIndicator{
		{Type: attendance.IndicatorWeekendAttendance, Severity: attendance.SeverityMedium, Details: "submitted on a weekend"},
	}

	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.FraudSuspected)
	require.Len(t, got.FraudIndicators, 1)
	assert.Equal(t, attendance.IndicatorWeekendAttendance, got.FraudIndicators[0].Type)
	assert.Equal(t, attendance.SeverityMedium, got.FraudIndicators[0].Severity)
}

func TestAttendanceRepository_GetByEmployeeAndDate_Miss(t *testing.T) {
	db := openTestDB(t)
	defer cleanupTestData(t, db)
	cleanupTestData(t, db)

	ctx := context.Background()
	empID := createTestEmployee(t, ctx, db, "Asha Rao")
	repo := postgresql.NewAttendanceRepository(db)

	got, err := repo.GetByEmployeeAndDate(ctx, empID, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttendanceRepository_ApplyDecision_OnlyOnce(t *testing.T) {
	db := openTestDB(t)
	defer cleanupTestData(t, db)
	cleanupTestData(t, db)

	ctx := context.Background()
	empID := createTestEmployee(t, ctx, db, "Asha Rao")
	repo := postgresql.NewAttendanceRepository(db)

	created, err := repo.Create(ctx, pendingRecord(empID, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	upd := attendance.DecisionUpdate{
		RecordID:   created.ID,
		NewStatus:  attendance.StatusPresentLate,
		NewState:   attendance.ApprovalApproved,
		ReviewerID: "mgr-1",
		DecidedAt:  time.Now(),
	}

	decided, err := repo.ApplyDecision(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresentLate, decided.Status)
	assert.Equal(t, attendance.ApprovalApproved, decided.ApprovalState)
	assert.False(t, decided.RequiresApproval)
	require.NotNil(t, decided.ApprovedBy)
	assert.Equal(t, "mgr-1", *decided.ApprovedBy)

	_, err = repo.ApplyDecision(ctx, upd)
	assert.ErrorIs(t, err, attendance.ErrNotPending)

	upd.RecordID = uuid.New().String()
	_, err = repo.ApplyDecision(ctx, upd)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_ListPending_JoinsEmployeeName(t *testing.T) {
	db := openTestDB(t)
	defer cleanupTestData(t, db)
	cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)

	first := createTestEmployee(t, ctx, db, "Asha Rao")
	second := createTestEmployee(t, ctx, db, "Vikram Iyer")

	date := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	_, err := repo.Create(ctx, pendingRecord(first, date))
	require.NoError(t, err)

	later := pendingRecord(second, date)
	later.CheckIn = later.CheckIn.Add(time.Hour)
	_, err = repo.Create(ctx, later)
	require.NoError(t, err)

	records, total, err := repo.ListPending(ctx, attendance.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)

	// Oldest check-in first.
	require.NotNil(t, records[0].EmployeeName)
	assert.Equal(t, "Asha Rao", *records[0].EmployeeName)
	require.NotNil(t, records[1].EmployeeName)
	assert.Equal(t, "Vikram Iyer", *records[1].EmployeeName)
}
