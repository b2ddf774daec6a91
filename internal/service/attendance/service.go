package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/notification"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/shift"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/wfh"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/geo"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/imagex"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/storage"
	"github.com/dhanush-hc/hrms-backend-go/internal/service/fraud"
	"github.com/dhanush-hc/hrms-backend-go/internal/service/identity"
)

// Transactor runs fn inside a database transaction; the context passed to fn
// carries it.
type Transactor func(ctx context.Context, fn func(ctx context.Context) error) error

// IdentityVerifier is the face verification stage.
type IdentityVerifier interface {
	Verify(ctx context.Context, emp employee.Employee, photoBase64 string) (identity.Verdict, error)
}

// FraudDetector is the security validation stage.
type FraudDetector interface {
	Evaluate(ctx context.Context, in fraud.Input) ([]attendance.FraudIndicator, error)
}

type AttendanceServiceImpl struct {
	tx Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	shifts   shift.ShiftConfigRepository
	wfh      wfh.ApprovalRepository
	verifier IdentityVerifier
	detector FraudDetector
	files    storage.FileStorage
	notifier notification.Sink
	cfg      config.AttendanceConfig
	logger   *slog.Logger

	now func() time.Time
}

// NewAttendanceService wires the verification pipeline.
func NewAttendanceService(
	tx Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	shiftRepo shift.ShiftConfigRepository,
	wfhRepo wfh.ApprovalRepository,
	verifier IdentityVerifier,
	detector FraudDetector,
	files storage.FileStorage,
	notifier notification.Sink,
	cfg config.AttendanceConfig,
	logger *slog.Logger,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		shifts:               shiftRepo,
		wfh:                  wfhRepo,
		verifier:             verifier,
		detector:             detector,
		files:                files,
		notifier:             notifier,
		cfg:                  cfg,
		logger:               logger,
		now:                  time.Now,
	}
}

// Submit implements attendance.AttendanceService. The stages run in a fixed
// order; the first failing stage aborts the submission and nothing is
// persisted. On success exactly one record exists for (employee, day).
func (s *AttendanceServiceImpl) Submit(ctx context.Context, req attendance.SubmitRequest) (attendance.SubmitResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SubmitResponse{}, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Stage 1: eligibility.
	emp, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.SubmitResponse{}, attendance.NewError(attendance.KindEmployeeNotFound, "Employee not found")
		}
		return attendance.SubmitResponse{}, fmt.Errorf("failed to load employee: %w", err)
	}
	if !emp.IsActive {
		return attendance.SubmitResponse{}, attendance.NewError(attendance.KindEmployeeInactive, "Employee is not active")
	}

	existing, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return attendance.SubmitResponse{}, fmt.Errorf("failed to check existing attendance: %w", err)
	}
	if existing != nil {
		return attendance.SubmitResponse{}, attendance.NewError(attendance.KindAlreadyMarked, "Attendance already marked for today").
			WithDetails(map[string]interface{}{"date": today.Format("2006-01-02"), "attendance_id": existing.ID})
	}

	if req.PhotoBase64 == nil || *req.PhotoBase64 == "" {
		return attendance.SubmitResponse{}, attendance.NewError(attendance.KindPhotoRequired, "A check-in photo is required")
	}

	workMode := attendance.WorkModeOffice
	waiver, err := s.wfh.GetApprovedForDate(ctx, emp.ID, today)
	if err != nil {
		return attendance.SubmitResponse{}, fmt.Errorf("failed to check WFH approval: %w", err)
	}
	if waiver != nil {
		workMode = attendance.WorkModeWFH
	}

	// Stage 2: identity.
	var verdict *identity.Verdict
	if req.IdentityVerificationEnabled() {
		v, err := s.verifier.Verify(ctx, emp, *req.PhotoBase64)
		if err != nil {
			return attendance.SubmitResponse{}, err
		}
		verdict = &v
	}

	// Stage 2: location. WFH waives the geofence, not the audit trail; any
	// coordinates sent along are still recorded.
	var location *geo.Coordinate
	var distance *float64
	locationVerified := false
	if req.Latitude != nil && req.Longitude != nil {
		location = &geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		d := geo.Distance(*location, geo.Coordinate{Latitude: s.cfg.OfficeLatitude, Longitude: s.cfg.OfficeLongitude})
		d = math.Round(d*100) / 100
		distance = &d
	}
	if workMode == attendance.WorkModeOffice {
		if location == nil {
			return attendance.SubmitResponse{}, attendance.NewError(attendance.KindLocationRequired, "Location is required for office check-in")
		}
		if *distance > s.cfg.GeofenceRadiusMeters {
			return attendance.SubmitResponse{}, attendance.NewError(attendance.KindLocationTooFar, "Check-in location is outside the office geofence").
				WithDetails(map[string]interface{}{
					"distance_meters": *distance,
					"max_meters":      s.cfg.GeofenceRadiusMeters,
					"office":          s.cfg.OfficeName,
				})
		}
		locationVerified = true
	}

	// Shift window.
	shiftCfg := shift.DefaultWindow()
	if emp.ShiftName != nil && *emp.ShiftName != "" {
		cfg, err := s.shifts.GetByName(ctx, *emp.ShiftName)
		switch {
		case err == nil:
			shiftCfg = cfg
		case errors.Is(err, shift.ErrShiftNotFound):
			s.logger.Warn("unknown shift, using default window", "employee_id", emp.ID, "shift", *emp.ShiftName)
		default:
			return attendance.SubmitResponse{}, fmt.Errorf("failed to load shift config: %w", err)
		}
	}
	cls := shift.Evaluate(shiftCfg, now)

	// Stage 3: security validation.
	fraudInput := fraud.Input{
		EmployeeID:  emp.ID,
		Now:         now,
		Location:    location,
		HasApproval: waiver != nil,
	}
	if verdict != nil {
		fraudInput.FaceConfidence = &verdict.Confidence
		fraudInput.LowConfidence = verdict.LowConfidence
	}
	indicators, err := s.detector.Evaluate(ctx, fraudInput)
	if err != nil {
		return attendance.SubmitResponse{}, err
	}

	status, requiresApproval := resolveStatus(cls, workMode == attendance.WorkModeOffice, locationVerified, verdict, len(indicators) > 0)

	approvalState := attendance.ApprovalAutoApproved
	if requiresApproval {
		approvalState = attendance.ApprovalPending
	}

	photoPath := fmt.Sprintf("attendance-photos/%s/%s.jpg", emp.ID, today.Format("2006-01-02"))
	rec := attendance.Record{
		EmployeeID:         emp.ID,
		Date:               today,
		CheckIn:            now,
		Status:             status,
		ApprovalState:      approvalState,
		WorkMode:           workMode,
		ShiftName:          cls.ShiftName,
		DistanceFromOffice: distance,
		GraceUsed:          cls.GraceUsed,
		LateMinutes:        cls.LateMinutes,
		PhotoURL:           &photoPath,
		FraudSuspected:     len(indicators) > 0,
		FraudIndicators:    indicators,
		RequiresApproval:   requiresApproval,
	}
	if location != nil {
		rec.Latitude = &location.Latitude
		rec.Longitude = &location.Longitude
	}
	if verdict != nil {
		c := verdict.Confidence
		rec.FaceConfidence = &c
	}

	// Stage 4: record. The unique constraint decides ties between
	// concurrent submissions.
	var created attendance.Record
	err = s.tx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.AttendanceRepository.Create(txCtx, rec)
		return createErr
	})
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateRecord) {
			return attendance.SubmitResponse{}, attendance.NewError(attendance.KindAlreadyMarked, "Attendance already marked for today")
		}
		s.logger.Error("failed to create attendance record", "employee_id", emp.ID, "error", err)
		return attendance.SubmitResponse{}, attendance.NewError(attendance.KindRecordCreationFailed, "Failed to record attendance")
	}

	// Post-commit side effects never fail the submission.
	s.savePhoto(photoPath, *req.PhotoBase64)
	if requiresApproval {
		s.notifier.ApprovalRequired(ctx, created.ID, emp.FullName, string(created.Status))
	}
	if len(indicators) > 0 {
		names := make([]string, len(indicators))
		for i, ind := range indicators {
			names[i] = ind.Type
		}
		s.notifier.FraudAlert(ctx, created.ID, emp.FullName, names)
	}

	return buildSubmitResponse(created, cls, verdict, locationVerified), nil
}

// resolveStatus applies the status precedence: timing, then location, then
// identity. The strongest applicable status wins and anything beyond plain
// presence needs a reviewer. A WFH waiver drops the location requirement, so
// an on-time verified WFH check-in stays present.
func resolveStatus(cls shift.Classification, locationRequired, locationVerified bool, verdict *identity.Verdict, fraudSuspected bool) (attendance.Status, bool) {
	status := attendance.StatusPresent
	requiresApproval := false

	if cls.RequiresApproval {
		status = attendance.StatusLate
		requiresApproval = true
	}
	if locationRequired && !locationVerified {
		status = attendance.StatusRemoteUnverified
		requiresApproval = true
	}
	if verdict == nil || verdict.LowConfidence {
		status = attendance.StatusIdentityUnverified
		requiresApproval = true
	}
	if fraudSuspected {
		requiresApproval = true
	}

	return status, requiresApproval
}

// savePhoto persists the check-in photo in the background; the record is
// already committed.
func (s *AttendanceServiceImpl) savePhoto(path, photoBase64 string) {
	raw, err := imagex.RawBase64(photoBase64)
	if err != nil {
		s.logger.Error("failed to decode check-in photo for storage", "path", path, "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.files.Upload(ctx, bytes.NewReader(raw), path, "image/jpeg"); err != nil {
			s.logger.Error("failed to store check-in photo", "path", path, "error", err)
		}
	}()
}

func buildSubmitResponse(rec attendance.Record, cls shift.Classification, verdict *identity.Verdict, locationVerified bool) attendance.SubmitResponse {
	summary := attendance.VerificationSummary{
		LocationVerified: locationVerified,
		Distance:         rec.DistanceFromOffice,
		TimeWindowValid:  cls.WithinWindow,
		GraceUsed:        cls.GraceUsed,
		FraudIndicators:  rec.FraudIndicators,
	}
	if verdict != nil {
		summary.FaceVerified = !verdict.LowConfidence
		summary.FaceConfidence = rec.FaceConfidence
		q := float64(verdict.Quality.Score)
		summary.QualityScore = &q
		l := verdict.Liveness.OverallScore
		summary.LivenessScore = &l
	}

	return attendance.SubmitResponse{
		AttendanceID:     rec.ID,
		Status:           rec.Status,
		WorkMode:         rec.WorkMode,
		RequiresApproval: rec.RequiresApproval,
		CheckInTime:      rec.CheckIn.Format("2006-01-02 15:04:05"),
		Verification:     summary,
	}
}

// Get implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Get(ctx context.Context, id string) (attendance.RecordResponse, error) {
	rec, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return attendance.ToResponse(rec), nil
}

// ListMine implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListMine(ctx context.Context, employeeID string, filter attendance.ListFilter) (attendance.ListResponse, error) {
	filter.Normalize()

	records, total, err := s.AttendanceRepository.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return buildListResponse(records, total, filter), nil
}

// ListPending implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListPending(ctx context.Context, filter attendance.ListFilter) (attendance.ListResponse, error) {
	filter.Normalize()

	records, total, err := s.AttendanceRepository.ListPending(ctx, filter)
	if err != nil {
		return attendance.ListResponse{}, fmt.Errorf("failed to list pending records: %w", err)
	}

	return buildListResponse(records, total, filter), nil
}

func buildListResponse(records []attendance.Record, total int64, filter attendance.ListFilter) attendance.ListResponse {
	responses := make([]attendance.RecordResponse, len(records))
	for i, rec := range records {
		responses[i] = attendance.ToResponse(rec)
	}
	return attendance.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Records:    responses,
	}
}
