package attendance

import (
	"context"
)

// AttendanceService runs the verification pipeline and record reads.
type AttendanceService interface {
	// Submit runs PreCheck, Verify, Validate and Record for one submission.
	// It either returns a structured *Error or creates exactly one record.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)

	// Get retrieves a single record by id.
	Get(ctx context.Context, id string) (RecordResponse, error)

	// ListMine retrieves records for the submitting employee.
	ListMine(ctx context.Context, employeeID string, filter ListFilter) (ListResponse, error)

	// ListPending retrieves records awaiting review.
	ListPending(ctx context.Context, filter ListFilter) (ListResponse, error)
}

// ApprovalService is the human-review state machine over pipeline output.
type ApprovalService interface {
	// Approve finalizes a pending record, remapping its status to the
	// approved variant.
	Approve(ctx context.Context, req DecisionRequest) (RecordResponse, error)

	// Reject moves a pending record to the rejected terminal status.
	Reject(ctx context.Context, req DecisionRequest) (RecordResponse, error)
}
