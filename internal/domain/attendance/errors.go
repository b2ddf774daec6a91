package attendance

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable failure code callers branch on.
type ErrorKind string

const (
	KindEmployeeNotFound     ErrorKind = "employee_not_found"
	KindEmployeeInactive     ErrorKind = "employee_inactive"
	KindAlreadyMarked        ErrorKind = "already_marked"
	KindPhotoRequired        ErrorKind = "photo_required"
	KindProfileImageMissing  ErrorKind = "profile_image_missing"
	KindFaceMismatch         ErrorKind = "face_mismatch"
	KindImageQuality         ErrorKind = "image_quality"
	KindLocationRequired     ErrorKind = "location_required"
	KindLocationTooFar       ErrorKind = "location_too_far"
	KindSecurityFailed       ErrorKind = "security_validation_failed"
	KindRecordCreationFailed ErrorKind = "record_creation_failed"
	KindNotPendingApproval   ErrorKind = "not_pending_approval"
	KindRecordNotFound       ErrorKind = "record_not_found"
	KindSystemError          ErrorKind = "system_error"
)

// Error is the structured failure every pipeline stage returns. The kind is
// part of the API contract; the message is for humans.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a stage failure without details.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetails attaches structured context to the failure.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf extracts the error kind, normalizing unexpected errors to
// system_error so internals never leak to callers.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindSystemError
}

// AsError returns err as a structured *Error, wrapping unknown errors as
// system_error with the original message preserved.
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindSystemError, Message: "An unexpected error occurred"}
}
