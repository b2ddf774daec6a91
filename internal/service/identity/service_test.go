package identity

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatcher struct {
	distance float64
	err      error

	gotReference string
	gotProbe     string
}

func (m *stubMatcher) CompareFaces(ctx context.Context, referenceB64, probeB64 string) (float64, error) {
	m.gotReference = referenceB64
	m.gotProbe = probeB64
	if m.err != nil {
		return 0, m.err
	}
	return m.distance, nil
}

type stubEmployeeRepo struct {
	employees map[string]employee.Employee
	imageURLs map[string]string
}

func (s *stubEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *stubEmployeeRepo) UpdateProfileImage(ctx context.Context, employeeID, url string) error {
	if _, ok := s.employees[employeeID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	s.imageURLs[employeeID] = url
	return nil
}

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return path, nil
}

func (m *memStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found: " + path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *memStorage) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

// goodPhoto produces a bright, sharp image that clears the quality gate.
func goodPhoto(t *testing.T) string {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// flatPhoto produces a dark, featureless image that fails the quality gate.
func flatPhoto(t *testing.T) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetNRGBA(x, y, color.NRGBA{10, 10, 10, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testCfg() config.AttendanceConfig {
	return config.AttendanceConfig{
		FaceMatchThreshold:  60,
		FaceSoftThreshold:   70,
		EscalationThreshold: 85,
	}
}

func newVerifierFixture(t *testing.T, matcher *stubMatcher) (*Verifier, *stubEmployeeRepo, *memStorage) {
	t.Helper()

	refPath := "profile-images/emp-1.jpg"
	emps := &stubEmployeeRepo{
		employees: map[string]employee.Employee{
			"emp-1": {ID: "emp-1", FullName: "Asha Rao", IsActive: true, ProfileImageURL: &refPath},
		},
		imageURLs: map[string]string{},
	}

	files := newMemStorage()
	ref, err := base64.StdEncoding.DecodeString(goodPhoto(t))
	require.NoError(t, err)
	_, err = files.Upload(context.Background(), bytes.NewReader(ref), refPath, "image/jpeg")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewVerifier(matcher, emps, files, testCfg(), logger), emps, files
}

func TestVerify_HighConfidenceMatch(t *testing.T) {
	matcher := &stubMatcher{distance: 0.05}
	v, emps, _ := newVerifierFixture(t, matcher)
	emp := emps.employees["emp-1"]

	verdict, err := v.Verify(context.Background(), emp, goodPhoto(t))

	require.NoError(t, err)
	assert.InDelta(t, 95, verdict.Confidence, 0.01)
	assert.False(t, verdict.LowConfidence)
	assert.True(t, verdict.Quality.Acceptable)
	assert.NotEmpty(t, matcher.gotReference)
	assert.NotEmpty(t, matcher.gotProbe)
}

func TestVerify_ConfidenceClamped(t *testing.T) {
	// Distances beyond 1 bottom out at zero rather than going negative; the
	// hard threshold rejects them.
	matcher := &stubMatcher{distance: 1.7}
	v, emps, _ := newVerifierFixture(t, matcher)

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], goodPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindFaceMismatch, attendance.KindOf(err))
}

func TestVerify_HardRejectBelowThreshold(t *testing.T) {
	matcher := &stubMatcher{distance: 0.5} // confidence 50
	v, emps, _ := newVerifierFixture(t, matcher)

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], goodPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindFaceMismatch, attendance.KindOf(err))
}

func TestVerify_SoftFlagBetweenThresholds(t *testing.T) {
	matcher := &stubMatcher{distance: 0.35} // confidence 65
	v, emps, _ := newVerifierFixture(t, matcher)

	verdict, err := v.Verify(context.Background(), emps.employees["emp-1"], goodPhoto(t))

	require.NoError(t, err)
	assert.True(t, verdict.LowConfidence)
	assert.InDelta(t, 65, verdict.Confidence, 0.01)
}

func TestVerify_UnacceptableQualityRejected(t *testing.T) {
	matcher := &stubMatcher{distance: 0.05}
	v, emps, _ := newVerifierFixture(t, matcher)

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], flatPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindImageQuality, attendance.KindOf(err))
	// The matcher is never reached.
	assert.Empty(t, matcher.gotProbe)
}

func TestVerify_UndecodablePhotoRejected(t *testing.T) {
	matcher := &stubMatcher{distance: 0.05}
	v, emps, _ := newVerifierFixture(t, matcher)

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], "not-base64!!")

	require.Error(t, err)
	assert.Equal(t, attendance.KindImageQuality, attendance.KindOf(err))
}

func TestVerify_MissingProfileImage(t *testing.T) {
	matcher := &stubMatcher{distance: 0.05}
	v, _, _ := newVerifierFixture(t, matcher)
	emp := employee.Employee{ID: "emp-2", FullName: "Vikram Iyer", IsActive: true}

	_, err := v.Verify(context.Background(), emp, goodPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindProfileImageMissing, attendance.KindOf(err))
}

func TestVerify_UnreadableReferenceImage(t *testing.T) {
	matcher := &stubMatcher{distance: 0.05}
	v, emps, files := newVerifierFixture(t, matcher)
	require.NoError(t, files.Delete(context.Background(), "profile-images/emp-1.jpg"))

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], goodPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindProfileImageMissing, attendance.KindOf(err))
}

func TestVerify_MatcherOutageIsSystemError(t *testing.T) {
	matcher := &stubMatcher{err: errors.New("connection refused")}
	v, emps, _ := newVerifierFixture(t, matcher)

	_, err := v.Verify(context.Background(), emps.employees["emp-1"], goodPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindSystemError, attendance.KindOf(err))
}

func TestRegisterReference_StoresAndLinksImage(t *testing.T) {
	matcher := &stubMatcher{}
	v, emps, files := newVerifierFixture(t, matcher)

	url, err := v.RegisterReference(context.Background(), "emp-1", goodPhoto(t))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "profile-images/"))
	assert.Equal(t, url, emps.imageURLs["emp-1"])

	exists, err := files.Exists(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegisterReference_UnknownEmployee(t *testing.T) {
	matcher := &stubMatcher{}
	v, _, _ := newVerifierFixture(t, matcher)

	_, err := v.RegisterReference(context.Background(), "ghost", goodPhoto(t))

	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRegisterReference_QualityGate(t *testing.T) {
	matcher := &stubMatcher{}
	v, _, _ := newVerifierFixture(t, matcher)

	_, err := v.RegisterReference(context.Background(), "emp-1", flatPhoto(t))

	require.Error(t, err)
	assert.Equal(t, attendance.KindImageQuality, attendance.KindOf(err))
}
