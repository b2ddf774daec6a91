package wfh

import (
	"time"
)

// Approval is a per-day waiver that exempts an employee from the geofence
// requirement. Owned by the leave/WFH subsystem; read-only here.
type Approval struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Status     string
	Reason     *string
	ApprovedBy *string
	CreatedAt  time.Time
}

const StatusApproved = "approved"
