package postgresql

import (
	"context"
	"fmt"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/shift"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift config repository
func NewShiftRepository(db *database.DB) shift.ShiftConfigRepository {
	return &shiftRepository{db: db}
}

// GetByName implements shift.ShiftConfigRepository. Windows are stored as
// HH:MM strings.
func (r *shiftRepository) GetByName(ctx context.Context, name string) (shift.Config, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT name, start_time, end_time, grace_minutes
		FROM shift_configs
		WHERE name = $1
	`

	var cfg shift.Config
	var start, end string
	err := q.QueryRow(ctx, query, name).Scan(&cfg.Name, &start, &end, &cfg.GraceMinutes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return shift.Config{}, shift.ErrShiftNotFound
		}
		return shift.Config{}, fmt.Errorf("failed to get shift config: %w", err)
	}

	if cfg.Start, err = shift.ParseTimeOfDay(start); err != nil {
		return shift.Config{}, fmt.Errorf("invalid start time for shift %q: %w", name, err)
	}
	if cfg.End, err = shift.ParseTimeOfDay(end); err != nil {
		return shift.Config{}, fmt.Errorf("invalid end time for shift %q: %w", name, err)
	}

	return cfg, nil
}
