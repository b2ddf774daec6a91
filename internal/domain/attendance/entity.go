package attendance

import (
	"time"
)

// Status is the lifecycle status of an attendance record.
type Status string

const (
	// Pipeline-assigned statuses.
	StatusPresent            Status = "present"
	StatusLate               Status = "late"
	StatusRemoteUnverified   Status = "remote_unverified"
	StatusIdentityUnverified Status = "identity_unverified"

	// Post-review statuses.
	StatusPresentLate     Status = "present_late"
	StatusRemoteApproved  Status = "remote_approved"
	StatusPresentApproved Status = "present_approved"
	StatusRejected        Status = "rejected"
)

// ApprovalState tracks where a record sits in the review workflow.
type ApprovalState string

const (
	ApprovalAutoApproved ApprovalState = "auto_approved"
	ApprovalPending      ApprovalState = "pending"
	ApprovalApproved     ApprovalState = "approved"
	ApprovalRejected     ApprovalState = "rejected"
)

// WorkMode distinguishes office check-ins from approved work-from-home.
type WorkMode string

const (
	WorkModeOffice WorkMode = "office"
	WorkModeWFH    WorkMode = "wfh"
)

// Severity grades a fraud indicator.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Fraud indicator types.
const (
	IndicatorLowFaceConfidence = "low_face_confidence"
	IndicatorLocationAnomaly   = "location_anomaly"
	IndicatorRapidAttempts     = "rapid_attempts"
	IndicatorWeekendAttendance = "weekend_attendance"
)

// FraudIndicator is a named, severity-tagged signal raised by a heuristic
// check.
type FraudIndicator struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Details  string   `json:"details"`
}

// Record is the persisted daily attendance entity. At most one record exists
// per (employee, date); it is created once by the pipeline and mutated
// exactly once by the approval workflow.
type Record struct {
	ID                 string
	EmployeeID         string
	Date               time.Time
	CheckIn            time.Time
	Status             Status
	ApprovalState      ApprovalState
	WorkMode           WorkMode
	ShiftName          string
	Latitude           *float64
	Longitude          *float64
	DistanceFromOffice *float64
	FaceConfidence     *float64
	GraceUsed          bool
	LateMinutes        int
	PhotoURL           *string
	FraudSuspected     bool
	FraudIndicators    []FraudIndicator
	RequiresApproval   bool
	ApprovedBy         *string
	ApprovedAt         *time.Time
	ApprovalNotes      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// DTO
	EmployeeName *string
}
