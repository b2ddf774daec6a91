package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/geo"
)

// AttemptStore counts submission attempts per employee inside a sliding
// window.
type AttemptStore interface {
	// RecordAttempt registers an attempt and returns the count within the
	// window, this attempt included.
	RecordAttempt(ctx context.Context, employeeID string) (int64, error)
}

// Input carries the submission facts the heuristics inspect.
type Input struct {
	EmployeeID     string
	Now            time.Time
	Location       *geo.Coordinate
	FaceConfidence *float64
	LowConfidence  bool

	// HasApproval is true when a WFH or special approval covers the day,
	// which waives the weekend check.
	HasApproval bool
}

// Detector runs the fraud heuristics over a submission. Rapid-repeat
// attempts block the submission outright; the other indicators only tag the
// record for review.
type Detector struct {
	attempts AttemptStore
	records  attendance.AttendanceRepository
	cfg      config.AttendanceConfig
	logger   *slog.Logger
}

// NewDetector creates a fraud detector.
func NewDetector(attempts AttemptStore, records attendance.AttendanceRepository, cfg config.AttendanceConfig, logger *slog.Logger) *Detector {
	return &Detector{
		attempts: attempts,
		records:  records,
		cfg:      cfg,
		logger:   logger,
	}
}

// Evaluate runs all heuristics. A hard block is returned as a structured
// error; soft signals come back as indicators attached to the record.
func (d *Detector) Evaluate(ctx context.Context, in Input) ([]attendance.FraudIndicator, error) {
	if err := d.checkRapidAttempts(ctx, in.EmployeeID); err != nil {
		return nil, err
	}

	var indicators []attendance.FraudIndicator

	if in.FaceConfidence != nil && in.LowConfidence {
		indicators = append(indicators, attendance.FraudIndicator{
			Type:     attendance.IndicatorLowFaceConfidence,
			Severity: attendance.SeverityMedium,
			Details:  fmt.Sprintf("face confidence %.1f below %.0f", *in.FaceConfidence, d.cfg.FaceSoftThreshold),
		})
	}

	if in.Location != nil {
		if ind := d.checkLocationAnomaly(ctx, in.EmployeeID, *in.Location); ind != nil {
			indicators = append(indicators, *ind)
		}
	}

	if !in.HasApproval {
		switch in.Now.Weekday() {
		case time.Saturday, time.Sunday:
			indicators = append(indicators, attendance.FraudIndicator{
				Type:     attendance.IndicatorWeekendAttendance,
				Severity: attendance.SeverityMedium,
				Details:  "check-in on a non-working day without approval",
			})
		}
	}

	return indicators, nil
}

// checkRapidAttempts hard-blocks a second submission inside the attempt
// window regardless of what the rest of the pipeline would decide.
func (d *Detector) checkRapidAttempts(ctx context.Context, employeeID string) error {
	count, err := d.attempts.RecordAttempt(ctx, employeeID)
	if err != nil {
		// The attempt store is advisory; losing it must not take attendance
		// down with it.
		d.logger.Error("attempt store unavailable", "employee_id", employeeID, "error", err)
		return nil
	}

	if count > 1 {
		return attendance.NewError(attendance.KindSecurityFailed, "Too many check-in attempts, try again later").
			WithDetails(map[string]interface{}{
				"indicator": attendance.IndicatorRapidAttempts,
				"severity":  attendance.SeverityHigh,
				"attempts":  count,
				"window":    d.cfg.RapidAttemptWindow.String(),
			})
	}

	return nil
}

// checkLocationAnomaly compares the submission coordinate against the last
// few located check-ins; a submission far from all of them is suspicious but
// not blocking.
func (d *Detector) checkLocationAnomaly(ctx context.Context, employeeID string, loc geo.Coordinate) *attendance.FraudIndicator {
	recent, err := d.records.GetRecentWithLocation(ctx, employeeID, 3)
	if err != nil {
		d.logger.Error("failed to load recent locations", "employee_id", employeeID, "error", err)
		return nil
	}
	if len(recent) == 0 {
		return nil
	}

	minDistance := math.MaxFloat64
	for _, rec := range recent {
		if rec.Latitude == nil || rec.Longitude == nil {
			continue
		}
		dist := geo.Distance(loc, geo.Coordinate{Latitude: *rec.Latitude, Longitude: *rec.Longitude})
		if dist < minDistance {
			minDistance = dist
		}
	}
	if minDistance == math.MaxFloat64 || minDistance <= d.cfg.AnomalyRadiusMeters {
		return nil
	}

	return &attendance.FraudIndicator{
		Type:     attendance.IndicatorLocationAnomaly,
		Severity: attendance.SeverityLow,
		Details:  fmt.Sprintf("%.0fm from nearest recent check-in location", minDistance),
	}
}
