package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/wfh"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type wfhRepository struct {
	db *database.DB
}

// NewWFHRepository creates a new WFH approval repository
func NewWFHRepository(db *database.DB) wfh.ApprovalRepository {
	return &wfhRepository{db: db}
}

// GetApprovedForDate implements wfh.ApprovalRepository.
func (r *wfhRepository) GetApprovedForDate(ctx context.Context, employeeID string, date time.Time) (*wfh.Approval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, status, reason, approved_by, created_at
		FROM wfh_approvals
		WHERE employee_id = $1 AND date = $2 AND status = 'approved'
		LIMIT 1
	`

	var a wfh.Approval
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&a.ID,
		&a.EmployeeID,
		&a.Date,
		&a.Status,
		&a.Reason,
		&a.ApprovedBy,
		&a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get WFH approval: %w", err)
	}

	return &a, nil
}
