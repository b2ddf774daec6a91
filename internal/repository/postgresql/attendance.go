package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const attendanceColumns = `id, employee_id, date, check_in, status, approval_state, work_mode,
	   shift_name, latitude, longitude, distance_from_office, face_confidence,
	   grace_used, late_minutes, photo_url, fraud_suspected, fraud_indicators,
	   requires_approval, approved_by, approved_at, approval_notes,
	   created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create implements attendance.AttendanceRepository. The unique constraint on
// (employee_id, date) is the arbiter under concurrent submissions; violations
// surface as attendance.ErrDuplicateRecord.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	indicatorsJSON, err := json.Marshal(rec.FraudIndicators)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to marshal fraud indicators: %w", err)
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, date, check_in, status, approval_state, work_mode,
			shift_name, latitude, longitude, distance_from_office, face_confidence,
			grace_used, late_minutes, photo_url, fraud_suspected, fraud_indicators,
			requires_approval
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		rec.ID,
		rec.EmployeeID,
		rec.Date,
		rec.CheckIn,
		string(rec.Status),
		string(rec.ApprovalState),
		string(rec.WorkMode),
		rec.ShiftName,
		rec.Latitude,
		rec.Longitude,
		rec.DistanceFromOffice,
		rec.FaceConfidence,
		rec.GraceUsed,
		rec.LateMinutes,
		rec.PhotoURL,
		rec.FraudSuspected,
		indicatorsJSON,
		rec.RequiresApproval,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE id = $1
	`, attendanceColumns)

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository. Returns nil
// when the employee has no record for the day.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE employee_id = $1 AND date = $2
	`, attendanceColumns)

	rec, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record by date: %w", err)
	}

	return &rec, nil
}

// GetRecentWithLocation implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetRecentWithLocation(ctx context.Context, employeeID string, limit int) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE employee_id = $1
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
		ORDER BY check_in DESC
		LIMIT $2
	`, attendanceColumns)

	rows, err := q.Query(ctx, query, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attendance: %w", err)
	}
	defer rows.Close()

	return collectAttendance(rows)
}

// ApplyDecision implements attendance.AttendanceRepository. The UPDATE is
// keyed on the pending state so only one reviewer decision can ever land; a
// losing concurrent decision sees ErrNotPending.
func (a *attendanceRepository) ApplyDecision(ctx context.Context, upd attendance.DecisionUpdate) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		UPDATE attendances
		SET status = $2,
			approval_state = $3,
			requires_approval = false,
			approved_by = $4,
			approved_at = $5,
			approval_notes = $6,
			updated_at = NOW()
		WHERE id = $1 AND approval_state = 'pending'
		RETURNING %s
	`, attendanceColumns)

	rec, err := scanAttendance(q.QueryRow(ctx, query,
		upd.RecordID,
		string(upd.NewStatus),
		string(upd.NewState),
		upd.ReviewerID,
		upd.DecidedAt,
		upd.Notes,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			// Distinguish a missing record from one already decided.
			var exists bool
			checkErr := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendances WHERE id = $1)`, upd.RecordID).Scan(&exists)
			if checkErr != nil {
				return attendance.Record{}, fmt.Errorf("failed to check attendance record: %w", checkErr)
			}
			if !exists {
				return attendance.Record{}, attendance.ErrRecordNotFound
			}
			return attendance.Record{}, attendance.ErrNotPending
		}
		return attendance.Record{}, fmt.Errorf("failed to apply decision: %w", err)
	}

	return rec, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendances WHERE employee_id = $1`
	if err := q.QueryRow(ctx, countQuery, employeeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE employee_id = $1
		ORDER BY date DESC
		LIMIT $2 OFFSET $3
	`, attendanceColumns)

	offset := (filter.Page - 1) * filter.Limit
	rows, err := q.Query(ctx, query, employeeID, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	records, err := collectAttendance(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListPending implements attendance.AttendanceRepository. Records are joined
// with the employee name for the review queue, oldest first.
func (a *attendanceRepository) ListPending(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendances WHERE approval_state = 'pending'`
	if err := q.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending records: %w", err)
	}

	query := `
		SELECT a.id, a.employee_id, a.date, a.check_in, a.status, a.approval_state, a.work_mode,
			   a.shift_name, a.latitude, a.longitude, a.distance_from_office, a.face_confidence,
			   a.grace_used, a.late_minutes, a.photo_url, a.fraud_suspected, a.fraud_indicators,
			   a.requires_approval, a.approved_by, a.approved_at, a.approval_notes,
			   a.created_at, a.updated_at,
			   e.full_name
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.approval_state = 'pending'
		ORDER BY a.check_in ASC
		LIMIT $1 OFFSET $2
	`

	offset := (filter.Page - 1) * filter.Limit
	rows, err := q.Query(ctx, query, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query pending records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var indicatorsJSON []byte
		var status, state, mode string
		var name string

		if err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &status, &state, &mode,
			&rec.ShiftName, &rec.Latitude, &rec.Longitude, &rec.DistanceFromOffice, &rec.FaceConfidence,
			&rec.GraceUsed, &rec.LateMinutes, &rec.PhotoURL, &rec.FraudSuspected, &indicatorsJSON,
			&rec.RequiresApproval, &rec.ApprovedBy, &rec.ApprovedAt, &rec.ApprovalNotes,
			&rec.CreatedAt, &rec.UpdatedAt,
			&name,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan pending record: %w", err)
		}

		rec.Status = attendance.Status(status)
		rec.ApprovalState = attendance.ApprovalState(state)
		rec.WorkMode = attendance.WorkMode(mode)
		rec.EmployeeName = &name
		if err := unmarshalIndicators(indicatorsJSON, &rec); err != nil {
			return nil, 0, err
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate pending records: %w", err)
	}

	return records, total, nil
}

// scanAttendance scans the attendanceColumns projection from a single row.
func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var indicatorsJSON []byte
	var status, state, mode string

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &status, &state, &mode,
		&rec.ShiftName, &rec.Latitude, &rec.Longitude, &rec.DistanceFromOffice, &rec.FaceConfidence,
		&rec.GraceUsed, &rec.LateMinutes, &rec.PhotoURL, &rec.FraudSuspected, &indicatorsJSON,
		&rec.RequiresApproval, &rec.ApprovedBy, &rec.ApprovedAt, &rec.ApprovalNotes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	rec.Status = attendance.Status(status)
	rec.ApprovalState = attendance.ApprovalState(state)
	rec.WorkMode = attendance.WorkMode(mode)
	if err := unmarshalIndicators(indicatorsJSON, &rec); err != nil {
		return attendance.Record{}, err
	}

	return rec, nil
}

func collectAttendance(rows pgx.Rows) ([]attendance.Record, error) {
	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

func unmarshalIndicators(data []byte, rec *attendance.Record) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &rec.FraudIndicators); err != nil {
		return fmt.Errorf("failed to unmarshal fraud indicators: %w", err)
	}
	return nil
}
