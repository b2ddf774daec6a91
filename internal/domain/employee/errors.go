package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee profile not found")
	ErrEmployeeInactive = errors.New("employee account is inactive")
)
