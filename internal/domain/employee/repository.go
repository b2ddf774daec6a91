package employee

import (
	"context"
)

// EmployeeRepository provides read access to the personnel directory.
type EmployeeRepository interface {
	// GetByID retrieves an employee by id. Returns ErrEmployeeNotFound when
	// no row exists.
	GetByID(ctx context.Context, id string) (Employee, error)

	// UpdateProfileImage records the reference image URL used for identity
	// verification.
	UpdateProfileImage(ctx context.Context, employeeID, url string) error
}
