package wfh

import (
	"context"
	"time"
)

// ApprovalRepository provides read access to WFH approvals.
type ApprovalRepository interface {
	// GetApprovedForDate returns the approved waiver for (employee, date),
	// or nil when none exists.
	GetApprovedForDate(ctx context.Context, employeeID string, date time.Time) (*Approval, error)
}
