package response

import (
	"errors"
	"net/http"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/domain/employee"
)

// statusByKind maps pipeline error kinds to HTTP status codes. The kind
// string itself is the stable contract; the status is a transport detail.
var statusByKind = map[attendance.ErrorKind]int{
	attendance.KindEmployeeNotFound:     http.StatusNotFound,
	attendance.KindEmployeeInactive:     http.StatusForbidden,
	attendance.KindAlreadyMarked:        http.StatusConflict,
	attendance.KindPhotoRequired:        http.StatusBadRequest,
	attendance.KindProfileImageMissing:  http.StatusPreconditionFailed,
	attendance.KindFaceMismatch:         http.StatusUnauthorized,
	attendance.KindImageQuality:         http.StatusBadRequest,
	attendance.KindLocationRequired:     http.StatusBadRequest,
	attendance.KindLocationTooFar:       http.StatusForbidden,
	attendance.KindSecurityFailed:       http.StatusForbidden,
	attendance.KindRecordCreationFailed: http.StatusInternalServerError,
	attendance.KindNotPendingApproval:   http.StatusConflict,
	attendance.KindRecordNotFound:       http.StatusNotFound,
	attendance.KindSystemError:          http.StatusInternalServerError,
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var ae *attendance.Error
	if errors.As(err, &ae) {
		status, ok := statusByKind[ae.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		ErrorWithKind(w, status, string(ae.Kind), ae.Message, ae.Details)
		return
	}

	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee account is inactive")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrNotPending):
		Conflict(w, "Attendance record is not pending approval")
	case errors.Is(err, attendance.ErrDuplicateRecord):
		Conflict(w, "Attendance already marked for today")
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
