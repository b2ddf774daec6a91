package attendance

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateRecord signals the (employee_id, date) unique constraint fired.
var ErrDuplicateRecord = errors.New("attendance already recorded for this date")

// ErrRecordNotFound signals a lookup miss.
var ErrRecordNotFound = errors.New("attendance record not found")

// ErrNotPending signals a decision attempted on a record that is not awaiting
// approval.
var ErrNotPending = errors.New("attendance record is not pending approval")

// DecisionUpdate is the single permitted post-creation mutation, applied
// conditionally while the record is pending approval.
type DecisionUpdate struct {
	RecordID   string
	NewStatus  Status
	NewState   ApprovalState
	ReviewerID string
	Notes      *string
	DecidedAt  time.Time
}

// AttendanceRepository defines data access for attendance records. Create
// must be safe under concurrent submissions: the store's unique constraint
// on (employee_id, date) is the source of truth, surfaced as
// ErrDuplicateRecord.
type AttendanceRepository interface {
	Create(ctx context.Context, rec Record) (Record, error)

	GetByID(ctx context.Context, id string) (Record, error)

	// GetByEmployeeAndDate returns nil when no record exists for the day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// GetRecentWithLocation returns the newest records carrying coordinates,
	// most recent first, for the location-anomaly heuristic.
	GetRecentWithLocation(ctx context.Context, employeeID string, limit int) ([]Record, error)

	// ApplyDecision atomically moves a record out of the pending state.
	// Returns ErrNotPending when the record exists but is not pending, and
	// ErrRecordNotFound when it does not exist.
	ApplyDecision(ctx context.Context, upd DecisionUpdate) (Record, error)

	ListByEmployee(ctx context.Context, employeeID string, filter ListFilter) ([]Record, int64, error)

	ListPending(ctx context.Context, filter ListFilter) ([]Record, int64, error)
}
