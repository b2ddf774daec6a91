package shift

import (
	"context"
	"errors"
)

var ErrShiftNotFound = errors.New("shift config not found")

// ShiftConfigRepository resolves named shift windows.
type ShiftConfigRepository interface {
	// GetByName retrieves a shift config. Returns ErrShiftNotFound when the
	// name is unknown; callers fall back to DefaultWindow.
	GetByName(ctx context.Context, name string) (Config, error)
}
