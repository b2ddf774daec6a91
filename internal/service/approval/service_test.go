package approval

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAttendanceRepo struct {
	records map[string]attendance.Record
}

func (s *stubAttendanceRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *stubAttendanceRepo) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (s *stubAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) GetRecentWithLocation(ctx context.Context, employeeID string, limit int) ([]attendance.Record, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) ApplyDecision(ctx context.Context, upd attendance.DecisionUpdate) (attendance.Record, error) {
	rec, ok := s.records[upd.RecordID]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if rec.ApprovalState != attendance.ApprovalPending {
		return attendance.Record{}, attendance.ErrNotPending
	}
	rec.Status = upd.NewStatus
	rec.ApprovalState = upd.NewState
	rec.RequiresApproval = false
	rec.ApprovedBy = &upd.ReviewerID
	rec.ApprovedAt = &upd.DecidedAt
	rec.ApprovalNotes = upd.Notes
	s.records[upd.RecordID] = rec
	return rec, nil
}

func (s *stubAttendanceRepo) ListByEmployee(ctx context.Context, employeeID string, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (s *stubAttendanceRepo) ListPending(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

type stubEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (s *stubEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *stubEmployeeRepo) UpdateProfileImage(ctx context.Context, employeeID, url string) error {
	return nil
}

type recordingSink struct {
	decided  []string
	approved []bool
}

func (r *recordingSink) ApprovalRequired(ctx context.Context, recordID, employeeName, status string) {}

func (r *recordingSink) FraudAlert(ctx context.Context, recordID, employeeName string, indicators []string) {
}

func (r *recordingSink) ApprovalDecided(ctx context.Context, recipientUserID, recordID, date string, approved bool, notes *string) {
	r.decided = append(r.decided, recipientUserID)
	r.approved = append(r.approved, approved)
}

func newFixture(status attendance.Status, state attendance.ApprovalState) (*ApprovalServiceImpl, *stubAttendanceRepo, *recordingSink) {
	userID := "user-9"
	repo := &stubAttendanceRepo{records: map[string]attendance.Record{
		"rec-1": {
			ID:               "rec-1",
			EmployeeID:       "emp-1",
			Date:             time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
			Status:           status,
			ApprovalState:    state,
			RequiresApproval: state == attendance.ApprovalPending,
		},
	}}
	emps := &stubEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", FullName: "Asha Rao", IsActive: true, UserID: &userID},
	}}
	sink := &recordingSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewApprovalService(repo, emps, sink, logger).(*ApprovalServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC) }
	return svc, repo, sink
}

func decision() attendance.DecisionRequest {
	return attendance.DecisionRequest{RecordID: "rec-1", ReviewerID: "mgr-1"}
}

func TestApprove_RemapsLate(t *testing.T) {
	svc, repo, sink := newFixture(attendance.StatusLate, attendance.ApprovalPending)

	resp, err := svc.Approve(context.Background(), decision())

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresentLate, resp.Status)
	assert.Equal(t, attendance.ApprovalApproved, resp.ApprovalState)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, "mgr-1", *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)

	rec := repo.records["rec-1"]
	assert.Equal(t, attendance.StatusPresentLate, rec.Status)

	require.Equal(t, []string{"user-9"}, sink.decided)
	assert.Equal(t, []bool{true}, sink.approved)
}

func TestApprove_ClearsRequiresApproval(t *testing.T) {
	svc, repo, _ := newFixture(attendance.StatusLate, attendance.ApprovalPending)

	resp, err := svc.Approve(context.Background(), decision())

	require.NoError(t, err)
	assert.False(t, resp.RequiresApproval)
	assert.False(t, repo.records["rec-1"].RequiresApproval)
}

func TestReject_ClearsRequiresApproval(t *testing.T) {
	svc, repo, _ := newFixture(attendance.StatusRemoteUnverified, attendance.ApprovalPending)

	resp, err := svc.Reject(context.Background(), decision())

	require.NoError(t, err)
	assert.False(t, resp.RequiresApproval)
	assert.False(t, repo.records["rec-1"].RequiresApproval)
}

func TestApprove_RemapsRemote(t *testing.T) {
	svc, _, _ := newFixture(attendance.StatusRemoteUnverified, attendance.ApprovalPending)

	resp, err := svc.Approve(context.Background(), decision())

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusRemoteApproved, resp.Status)
}

func TestApprove_RemapsIdentityUnverified(t *testing.T) {
	svc, _, _ := newFixture(attendance.StatusIdentityUnverified, attendance.ApprovalPending)

	resp, err := svc.Approve(context.Background(), decision())

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresentApproved, resp.Status)
}

func TestApprove_PresentKeepsStatus(t *testing.T) {
	// Fraud-flagged records can be pending with a plain present status.
	svc, _, _ := newFixture(attendance.StatusPresent, attendance.ApprovalPending)

	resp, err := svc.Approve(context.Background(), decision())

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, attendance.ApprovalApproved, resp.ApprovalState)
}

func TestReject_TerminalStatus(t *testing.T) {
	svc, _, sink := newFixture(attendance.StatusLate, attendance.ApprovalPending)
	notes := "no justification provided"
	req := decision()
	req.Notes = &notes

	resp, err := svc.Reject(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, attendance.StatusRejected, resp.Status)
	assert.Equal(t, attendance.ApprovalRejected, resp.ApprovalState)
	require.NotNil(t, resp.ApprovalNotes)
	assert.Equal(t, notes, *resp.ApprovalNotes)
	assert.Equal(t, []bool{false}, sink.approved)
}

func TestApprove_SecondDecisionFails(t *testing.T) {
	svc, _, _ := newFixture(attendance.StatusLate, attendance.ApprovalPending)

	_, err := svc.Approve(context.Background(), decision())
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), decision())
	require.Error(t, err)
	assert.Equal(t, attendance.KindNotPendingApproval, attendance.KindOf(err))
}

func TestApprove_AutoApprovedNotPending(t *testing.T) {
	svc, _, _ := newFixture(attendance.StatusPresent, attendance.ApprovalAutoApproved)

	_, err := svc.Approve(context.Background(), decision())

	require.Error(t, err)
	assert.Equal(t, attendance.KindNotPendingApproval, attendance.KindOf(err))
}

func TestApprove_RecordNotFound(t *testing.T) {
	svc, _, _ := newFixture(attendance.StatusLate, attendance.ApprovalPending)
	req := decision()
	req.RecordID = "missing"

	_, err := svc.Approve(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, attendance.KindRecordNotFound, attendance.KindOf(err))
}

func TestApprove_LostRace(t *testing.T) {
	// The pre-read sees pending but the conditional update loses to a
	// concurrent decision.
	svc, repo, _ := newFixture(attendance.StatusLate, attendance.ApprovalPending)
	svc.AttendanceRepository = &racingDecisionRepo{stubAttendanceRepo: repo}

	_, err := svc.Approve(context.Background(), decision())

	require.Error(t, err)
	assert.Equal(t, attendance.KindNotPendingApproval, attendance.KindOf(err))
}

type racingDecisionRepo struct {
	*stubAttendanceRepo
}

func (r *racingDecisionRepo) ApplyDecision(ctx context.Context, upd attendance.DecisionUpdate) (attendance.Record, error) {
	return attendance.Record{}, attendance.ErrNotPending
}
