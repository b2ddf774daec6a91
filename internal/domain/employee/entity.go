package employee

import (
	"time"
)

// Employee is the read-only slice of the personnel directory this system
// needs. The directory service owns the full profile.
type Employee struct {
	ID              string
	UserID          *string
	FullName        string
	Department      *string
	IsActive        bool
	ShiftName       *string
	OfficeID        *string
	ProfileImageURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
