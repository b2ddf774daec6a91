package postgresql

import (
	"context"
	"fmt"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, full_name, department, is_active, shift_name,
			   office_id, profile_image_url, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(
		&emp.ID,
		&emp.UserID,
		&emp.FullName,
		&emp.Department,
		&emp.IsActive,
		&emp.ShiftName,
		&emp.OfficeID,
		&emp.ProfileImageURL,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return emp, nil
}

// UpdateProfileImage implements employee.EmployeeRepository.
func (r *employeeRepository) UpdateProfileImage(ctx context.Context, employeeID, url string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET profile_image_url = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, employeeID, url)
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}

	return nil
}
