package app

import (
	"errors"
	"fmt"

	"github.com/khrees2412/prospector/internal/database"
)

// Sentinel errors for common application errors
var (
	ErrNotFound           = database.ErrNotFound
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrAlreadyPromoted    = errors.New("job lead already promoted")
	ErrNoActiveResume     = fmt.Errorf("no active resume: %w", ErrNotFound)
)
