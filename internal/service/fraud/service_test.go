package fraud

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAttemptStore struct {
	counts map[string]int64
	err    error
}

func (m *memAttemptStore) RecordAttempt(ctx context.Context, employeeID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counts[employeeID]++
	return m.counts[employeeID], nil
}

type recentLocationRepo struct {
	records []attendance.Record
}

func (r *recentLocationRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	return rec, nil
}

func (r *recentLocationRepo) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (r *recentLocationRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	return nil, nil
}

func (r *recentLocationRepo) GetRecentWithLocation(ctx context.Context, employeeID string, limit int) ([]attendance.Record, error) {
	if len(r.records) > limit {
		return r.records[:limit], nil
	}
	return r.records, nil
}

func (r *recentLocationRepo) ApplyDecision(ctx context.Context, upd attendance.DecisionUpdate) (attendance.Record, error) {
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (r *recentLocationRepo) ListByEmployee(ctx context.Context, employeeID string, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (r *recentLocationRepo) ListPending(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func locatedRecord(lat, lon float64) attendance.Record {
	return attendance.Record{Latitude: &lat, Longitude: &lon}
}

func newDetector(attempts *memAttemptStore, repo *recentLocationRepo) *Detector {
	cfg := config.AttendanceConfig{
		FaceSoftThreshold:   70,
		RapidAttemptWindow:  5 * time.Minute,
		AnomalyRadiusMeters: 1000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDetector(attempts, repo, cfg, logger)
}

// Wednesday.
var weekdayNoon = time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)

func TestEvaluate_CleanSubmission(t *testing.T) {
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, &recentLocationRepo{})

	indicators, err := d.Evaluate(context.Background(), Input{EmployeeID: "emp-1", Now: weekdayNoon})

	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestEvaluate_RapidAttemptsBlock(t *testing.T) {
	store := &memAttemptStore{counts: map[string]int64{}}
	d := newDetector(store, &recentLocationRepo{})
	in := Input{EmployeeID: "emp-1", Now: weekdayNoon}

	_, err := d.Evaluate(context.Background(), in)
	require.NoError(t, err)

	_, err = d.Evaluate(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, attendance.KindSecurityFailed, attendance.KindOf(err))

	ae := attendance.AsError(err)
	assert.Equal(t, attendance.IndicatorRapidAttempts, ae.Details["indicator"])
}

func TestEvaluate_AttemptStoreOutageIsNotFatal(t *testing.T) {
	d := newDetector(&memAttemptStore{err: errors.New("connection refused")}, &recentLocationRepo{})

	indicators, err := d.Evaluate(context.Background(), Input{EmployeeID: "emp-1", Now: weekdayNoon})

	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestEvaluate_LowFaceConfidence(t *testing.T) {
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, &recentLocationRepo{})
	confidence := 64.5

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID:     "emp-1",
		Now:            weekdayNoon,
		FaceConfidence: &confidence,
		LowConfidence:  true,
	})

	require.NoError(t, err)
	require.Len(t, indicators, 1)
	assert.Equal(t, attendance.IndicatorLowFaceConfidence, indicators[0].Type)
	assert.Equal(t, attendance.SeverityMedium, indicators[0].Severity)
}

func TestEvaluate_LocationAnomaly(t *testing.T) {
	// All recent check-ins cluster around the office; today's is ~10km away.
	repo := &recentLocationRepo{records: []attendance.Record{
		locatedRecord(17.4065, 78.4772),
		locatedRecord(17.4070, 78.4770),
		locatedRecord(17.4060, 78.4775),
	}}
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, repo)

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID: "emp-1",
		Now:        weekdayNoon,
		Location:   &geo.Coordinate{Latitude: 17.5000, Longitude: 78.4772},
	})

	require.NoError(t, err)
	require.Len(t, indicators, 1)
	assert.Equal(t, attendance.IndicatorLocationAnomaly, indicators[0].Type)
	assert.Equal(t, attendance.SeverityLow, indicators[0].Severity)
}

func TestEvaluate_NearbyLocationNotFlagged(t *testing.T) {
	repo := &recentLocationRepo{records: []attendance.Record{
		locatedRecord(17.4065, 78.4772),
	}}
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, repo)

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID: "emp-1",
		Now:        weekdayNoon,
		Location:   &geo.Coordinate{Latitude: 17.4066, Longitude: 78.4773},
	})

	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestEvaluate_FirstLocatedCheckInNotFlagged(t *testing.T) {
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, &recentLocationRepo{})

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID: "emp-1",
		Now:        weekdayNoon,
		Location:   &geo.Coordinate{Latitude: 17.4065, Longitude: 78.4772},
	})

	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestEvaluate_WeekendAttendance(t *testing.T) {
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, &recentLocationRepo{})
	saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	indicators, err := d.Evaluate(context.Background(), Input{EmployeeID: "emp-1", Now: saturday})

	require.NoError(t, err)
	require.Len(t, indicators, 1)
	assert.Equal(t, attendance.IndicatorWeekendAttendance, indicators[0].Type)
	assert.Equal(t, attendance.SeverityMedium, indicators[0].Severity)
}

func TestEvaluate_ApprovedWeekendNotFlagged(t *testing.T) {
	// A WFH approval covering the day waives the weekend indicator.
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, &recentLocationRepo{})
	saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID:  "emp-1",
		Now:         saturday,
		HasApproval: true,
	})

	require.NoError(t, err)
	assert.Empty(t, indicators)
}

func TestEvaluate_MultipleIndicatorsAccumulate(t *testing.T) {
	repo := &recentLocationRepo{records: []attendance.Record{
		locatedRecord(17.4065, 78.4772),
	}}
	d := newDetector(&memAttemptStore{counts: map[string]int64{}}, repo)
	confidence := 62.0
	sunday := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	indicators, err := d.Evaluate(context.Background(), Input{
		EmployeeID:     "emp-1",
		Now:            sunday,
		Location:       &geo.Coordinate{Latitude: 17.5000, Longitude: 78.4772},
		FaceConfidence: &confidence,
		LowConfidence:  true,
	})

	require.NoError(t, err)
	require.Len(t, indicators, 3)
	types := []string{indicators[0].Type, indicators[1].Type, indicators[2].Type}
	assert.Contains(t, types, attendance.IndicatorLowFaceConfidence)
	assert.Contains(t, types, attendance.IndicatorLocationAnomaly)
	assert.Contains(t, types, attendance.IndicatorWeekendAttendance)
}
