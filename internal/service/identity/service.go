package identity

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/imagex"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/storage"
)

// FaceMatcher compares two base64-encoded face images and returns the
// embedding distance, where 0 is identical.
type FaceMatcher interface {
	CompareFaces(ctx context.Context, referenceB64, probeB64 string) (float64, error)
}

// Verdict is the outcome of a passed identity check. Hard failures are
// returned as errors instead.
type Verdict struct {
	Confidence    float64
	RawConfidence float64
	Quality       imagex.QualityReport
	Liveness      imagex.LivenessReport
	Warnings      []string

	// LowConfidence marks a match that passed the hard threshold but fell
	// below the soft one; the record still lands but flagged for review.
	LowConfidence bool
}

// Verifier runs the photo-based identity check: image quality, liveness
// heuristics, then face comparison against the employee's registered
// reference image.
type Verifier struct {
	matcher   FaceMatcher
	employees employee.EmployeeRepository
	files     storage.FileStorage
	cfg       config.AttendanceConfig
	logger    *slog.Logger
}

// NewVerifier creates an identity verifier.
func NewVerifier(
	matcher FaceMatcher,
	employees employee.EmployeeRepository,
	files storage.FileStorage,
	cfg config.AttendanceConfig,
	logger *slog.Logger,
) *Verifier {
	return &Verifier{
		matcher:   matcher,
		employees: employees,
		files:     files,
		cfg:       cfg,
		logger:    logger,
	}
}

// Verify checks a submission photo against the employee's reference image.
// The confidence scale is 0-100; the liveness and quality signals adjust it
// downward before thresholds apply.
func (v *Verifier) Verify(ctx context.Context, emp employee.Employee, photoBase64 string) (Verdict, error) {
	img, err := imagex.DecodeBase64(photoBase64)
	if err != nil {
		return Verdict{}, attendance.NewError(attendance.KindImageQuality, "Photo could not be decoded").
			WithDetails(map[string]interface{}{"reason": err.Error()})
	}

	quality := imagex.AnalyzeQuality(img)
	if !quality.Acceptable {
		return Verdict{}, attendance.NewError(attendance.KindImageQuality, "Photo quality too low for verification").
			WithDetails(map[string]interface{}{
				"quality_score": quality.Score,
				"issues":        quality.Issues,
			})
	}

	liveness := imagex.AnalyzeLiveness(img)

	referenceB64, err := v.loadReference(ctx, emp)
	if err != nil {
		return Verdict{}, err
	}

	distance, err := v.matcher.CompareFaces(ctx, referenceB64, photoBase64)
	if err != nil {
		v.logger.Error("face comparison failed", "employee_id", emp.ID, "error", err)
		return Verdict{}, attendance.NewError(attendance.KindSystemError, "Face verification is temporarily unavailable")
	}

	raw := confidenceFromDistance(distance)
	adjusted := raw
	warnings := append([]string{}, liveness.Warnings...)

	if liveness.OverallScore < 50 {
		adjusted *= 0.8
		warnings = append(warnings, "weak liveness signals")
	}
	if quality.Score < 80 {
		adjusted *= 0.9
		warnings = append(warnings, "marginal image quality")
	}

	// Several independent warnings on a non-excellent match outweigh the
	// raw score.
	if len(warnings) >= 2 && adjusted < v.cfg.EscalationThreshold {
		return Verdict{}, attendance.NewError(attendance.KindFaceMismatch, "Face verification failed").
			WithDetails(map[string]interface{}{
				"confidence": math.Round(adjusted*100) / 100,
				"warnings":   warnings,
			})
	}

	if adjusted < v.cfg.FaceMatchThreshold {
		return Verdict{}, attendance.NewError(attendance.KindFaceMismatch, "Face does not match the registered profile").
			WithDetails(map[string]interface{}{
				"confidence": math.Round(adjusted*100) / 100,
				"threshold":  v.cfg.FaceMatchThreshold,
			})
	}

	return Verdict{
		Confidence:    math.Round(adjusted*100) / 100,
		RawConfidence: math.Round(raw*100) / 100,
		Quality:       quality,
		Liveness:      liveness,
		Warnings:      warnings,
		LowConfidence: adjusted < v.cfg.FaceSoftThreshold,
	}, nil
}

// RegisterReference validates and stores an employee's reference image,
// replacing any previous one.
func (v *Verifier) RegisterReference(ctx context.Context, employeeID, photoBase64 string) (string, error) {
	if _, err := v.employees.GetByID(ctx, employeeID); err != nil {
		return "", err
	}

	raw, err := imagex.RawBase64(photoBase64)
	if err != nil {
		return "", attendance.NewError(attendance.KindImageQuality, "Profile image could not be decoded")
	}

	img, err := imagex.DecodeBase64(photoBase64)
	if err != nil {
		return "", attendance.NewError(attendance.KindImageQuality, "Profile image could not be decoded")
	}

	quality := imagex.AnalyzeQuality(img)
	if !quality.Acceptable {
		return "", attendance.NewError(attendance.KindImageQuality, "Profile image quality too low").
			WithDetails(map[string]interface{}{
				"quality_score": quality.Score,
				"issues":        quality.Issues,
			})
	}

	path := fmt.Sprintf("profile-images/%s.jpg", employeeID)
	url, err := v.files.Upload(ctx, bytes.NewReader(raw), path, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to store profile image: %w", err)
	}

	if err := v.employees.UpdateProfileImage(ctx, employeeID, url); err != nil {
		return "", err
	}

	return url, nil
}

// loadReference fetches the stored reference image and re-encodes it for the
// matching service.
func (v *Verifier) loadReference(ctx context.Context, emp employee.Employee) (string, error) {
	if emp.ProfileImageURL == nil || *emp.ProfileImageURL == "" {
		return "", attendance.NewError(attendance.KindProfileImageMissing, "No profile image registered for identity verification")
	}

	rc, err := v.files.Download(ctx, *emp.ProfileImageURL)
	if err != nil {
		v.logger.Error("reference image unavailable", "employee_id", emp.ID, "path", *emp.ProfileImageURL, "error", err)
		return "", attendance.NewError(attendance.KindProfileImageMissing, "Registered profile image could not be loaded")
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read reference image: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// confidenceFromDistance maps an embedding distance to a 0-100 confidence.
func confidenceFromDistance(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c * 100
}
