package postgresql

import (
	"context"
	"fmt"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/notification"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
)

type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a repository over the users table.
func NewUserRepository(db *database.DB) notification.ReviewerDirectory {
	return &userRepository{db: db}
}

// ListReviewerIDs implements notification.ReviewerDirectory.
func (r *userRepository) ListReviewerIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id
		FROM users
		WHERE role IN ('manager', 'hr', 'admin') AND is_active = true
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviewers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviewers: %w", err)
	}

	return ids, nil
}
