package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeApprovalRequired   NotificationType = "attendance_approval_required"
	TypeFraudAlert         NotificationType = "attendance_fraud_alert"
	TypeAttendanceApproved NotificationType = "attendance_approved"
	TypeAttendanceRejected NotificationType = "attendance_rejected"
)

// Notification represents an in-app notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
