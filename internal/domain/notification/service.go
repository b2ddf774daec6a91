package notification

import (
	"context"
)

// Sink accepts fire-and-forget pipeline events. Implementations must never
// block the caller or fail its transaction.
type Sink interface {
	// ApprovalRequired tells reviewers a record is waiting on them.
	ApprovalRequired(ctx context.Context, recordID string, employeeName string, status string)

	// FraudAlert escalates a suspicious submission to reviewers.
	FraudAlert(ctx context.Context, recordID string, employeeName string, indicators []string)

	// ApprovalDecided tells the employee their record was approved/rejected.
	ApprovalDecided(ctx context.Context, recipientUserID string, recordID string, date string, approved bool, notes *string)
}

// Service is the full notification surface: the pipeline-facing sink plus
// the read API behind the notification endpoints.
type Service interface {
	Sink

	GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	MarkAsRead(ctx context.Context, ids []string, userID string) error
	Shutdown()
}
