package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/notification"
)

// approvedStatus remaps a pipeline status to its reviewed variant. Statuses
// missing from the map keep their value on approval.
var approvedStatus = map[attendance.Status]attendance.Status{
	attendance.StatusLate:               attendance.StatusPresentLate,
	attendance.StatusRemoteUnverified:   attendance.StatusRemoteApproved,
	attendance.StatusIdentityUnverified: attendance.StatusPresentApproved,
}

type ApprovalServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	notifier notification.Sink
	logger   *slog.Logger

	now func() time.Time
}

// NewApprovalService wires the review state machine.
func NewApprovalService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	notifier notification.Sink,
	logger *slog.Logger,
) attendance.ApprovalService {
	return &ApprovalServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		notifier:             notifier,
		logger:               logger,
		now:                  time.Now,
	}
}

// Approve implements attendance.ApprovalService.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, req attendance.DecisionRequest) (attendance.RecordResponse, error) {
	return s.decide(ctx, req, true)
}

// Reject implements attendance.ApprovalService.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, req attendance.DecisionRequest) (attendance.RecordResponse, error) {
	return s.decide(ctx, req, false)
}

// decide applies one reviewer decision. The conditional update in the
// repository guarantees a record is decided at most once; a losing
// concurrent decision observes not_pending_approval.
func (s *ApprovalServiceImpl) decide(ctx context.Context, req attendance.DecisionRequest, approve bool) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	rec, err := s.AttendanceRepository.GetByID(ctx, req.RecordID)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.RecordResponse{}, attendance.NewError(attendance.KindRecordNotFound, "Attendance record not found")
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if rec.ApprovalState != attendance.ApprovalPending {
		return attendance.RecordResponse{}, attendance.NewError(attendance.KindNotPendingApproval, "Attendance record is not pending approval").
			WithDetails(map[string]interface{}{"approval_state": rec.ApprovalState})
	}

	upd := attendance.DecisionUpdate{
		RecordID:   req.RecordID,
		ReviewerID: req.ReviewerID,
		Notes:      req.Notes,
		DecidedAt:  s.now(),
	}
	if approve {
		upd.NewState = attendance.ApprovalApproved
		upd.NewStatus = rec.Status
		if mapped, ok := approvedStatus[rec.Status]; ok {
			upd.NewStatus = mapped
		}
	} else {
		upd.NewState = attendance.ApprovalRejected
		upd.NewStatus = attendance.StatusRejected
	}

	decided, err := s.AttendanceRepository.ApplyDecision(ctx, upd)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNotPending):
			return attendance.RecordResponse{}, attendance.NewError(attendance.KindNotPendingApproval, "Attendance record is not pending approval")
		case errors.Is(err, attendance.ErrRecordNotFound):
			return attendance.RecordResponse{}, attendance.NewError(attendance.KindRecordNotFound, "Attendance record not found")
		default:
			return attendance.RecordResponse{}, fmt.Errorf("failed to apply decision: %w", err)
		}
	}

	s.notifyEmployee(ctx, decided, approve)

	return attendance.ToResponse(decided), nil
}

// notifyEmployee tells the record owner about the decision. Best effort; a
// failed lookup only loses the notification.
func (s *ApprovalServiceImpl) notifyEmployee(ctx context.Context, rec attendance.Record, approved bool) {
	emp, err := s.EmployeeRepository.GetByID(ctx, rec.EmployeeID)
	if err != nil {
		s.logger.Error("failed to load employee for decision notification", "employee_id", rec.EmployeeID, "error", err)
		return
	}
	if emp.UserID == nil || *emp.UserID == "" {
		return
	}

	s.notifier.ApprovalDecided(ctx, *emp.UserID, rec.ID, rec.Date.Format("2006-01-02"), approved, rec.ApprovalNotes)
}
