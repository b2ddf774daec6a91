package attendance

// SubmitRequest is an inbound attendance submission. EmployeeID comes from
// the caller's token, never from the body.
type SubmitRequest struct {
	EmployeeID              string   `json:"-"`
	PhotoBase64             *string  `json:"photo,omitempty"`
	Latitude                *float64 `json:"latitude,omitempty"`
	Longitude               *float64 `json:"longitude,omitempty"`
	UseIdentityVerification *bool    `json:"use_identity_verification,omitempty"`
}

// IdentityVerificationEnabled defaults to true when the flag is omitted.
func (r SubmitRequest) IdentityVerificationEnabled() bool {
	return r.UseIdentityVerification == nil || *r.UseIdentityVerification
}

func (r SubmitRequest) Validate() error {
	if r.EmployeeID == "" {
		return NewError(KindEmployeeNotFound, "Employee id is required")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return NewError(KindLocationRequired, "Latitude and longitude must be provided together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return NewError(KindLocationRequired, "Latitude out of range")
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return NewError(KindLocationRequired, "Longitude out of range")
	}
	return nil
}

// VerificationSummary is the caller-facing digest of what the pipeline
// checked.
type VerificationSummary struct {
	FaceVerified     bool             `json:"face_verified"`
	FaceConfidence   *float64         `json:"face_confidence,omitempty"`
	QualityScore     *float64         `json:"quality_score,omitempty"`
	LivenessScore    *float64         `json:"liveness_score,omitempty"`
	LocationVerified bool             `json:"location_verified"`
	Distance         *float64         `json:"distance_from_office,omitempty"`
	TimeWindowValid  bool             `json:"time_window_valid"`
	GraceUsed        bool             `json:"grace_period_used"`
	FraudIndicators  []FraudIndicator `json:"fraud_indicators,omitempty"`
}

// SubmitResponse is the success payload of a submission.
type SubmitResponse struct {
	AttendanceID     string              `json:"attendance_id"`
	Status           Status              `json:"status"`
	WorkMode         WorkMode            `json:"work_mode"`
	RequiresApproval bool                `json:"requires_approval"`
	CheckInTime      string              `json:"check_in_time"`
	Verification     VerificationSummary `json:"verification_summary"`
}

// DecisionRequest is a reviewer action on a pending record.
type DecisionRequest struct {
	RecordID   string  `json:"-"`
	ReviewerID string  `json:"-"`
	Notes      *string `json:"notes,omitempty"`
}

func (r DecisionRequest) Validate() error {
	if r.RecordID == "" {
		return NewError(KindRecordNotFound, "Attendance record id is required")
	}
	if r.ReviewerID == "" {
		return NewError(KindNotPendingApproval, "Reviewer id is required")
	}
	return nil
}

// RecordResponse is the read model for a single attendance record.
type RecordResponse struct {
	ID                 string           `json:"id"`
	EmployeeID         string           `json:"employee_id"`
	EmployeeName       *string          `json:"employee_name,omitempty"`
	Date               string           `json:"date"`
	CheckInTime        string           `json:"check_in_time"`
	Status             Status           `json:"status"`
	ApprovalState      ApprovalState    `json:"approval_state"`
	WorkMode           WorkMode         `json:"work_mode"`
	ShiftName          string           `json:"shift_name"`
	DistanceFromOffice *float64         `json:"distance_from_office,omitempty"`
	FaceConfidence     *float64         `json:"face_confidence,omitempty"`
	GraceUsed          bool             `json:"grace_period_used"`
	LateMinutes        int              `json:"late_minutes"`
	RequiresApproval   bool             `json:"requires_approval"`
	FraudSuspected     bool             `json:"fraud_suspected"`
	FraudIndicators    []FraudIndicator `json:"fraud_indicators,omitempty"`
	ApprovedBy         *string          `json:"approved_by,omitempty"`
	ApprovedAt         *string          `json:"approved_at,omitempty"`
	ApprovalNotes      *string          `json:"approval_notes,omitempty"`
}

// ListFilter pages through attendance records.
type ListFilter struct {
	Page  int
	Limit int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// ListResponse is a paged collection of records.
type ListResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Records    []RecordResponse `json:"records"`
}

// ToResponse converts a Record to its read model.
func ToResponse(rec Record) RecordResponse {
	resp := RecordResponse{
		ID:                 rec.ID,
		EmployeeID:         rec.EmployeeID,
		EmployeeName:       rec.EmployeeName,
		Date:               rec.Date.Format("2006-01-02"),
		CheckInTime:        rec.CheckIn.Format("2006-01-02 15:04:05"),
		Status:             rec.Status,
		ApprovalState:      rec.ApprovalState,
		WorkMode:           rec.WorkMode,
		ShiftName:          rec.ShiftName,
		DistanceFromOffice: rec.DistanceFromOffice,
		FaceConfidence:     rec.FaceConfidence,
		GraceUsed:          rec.GraceUsed,
		LateMinutes:        rec.LateMinutes,
		RequiresApproval:   rec.RequiresApproval,
		FraudSuspected:     rec.FraudSuspected,
		FraudIndicators:    rec.FraudIndicators,
		ApprovedBy:         rec.ApprovedBy,
		ApprovalNotes:      rec.ApprovalNotes,
	}
	if rec.ApprovedAt != nil {
		s := rec.ApprovedAt.Format("2006-01-02 15:04:05")
		resp.ApprovedAt = &s
	}
	return resp
}
