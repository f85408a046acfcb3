package engine

import (
	"errors"
	"fmt"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/config"
)

var (
	// ErrNotInitialized is wrapped by ValidationError when the engine is used
	// before Initialize
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrValidationNotFound is returned for ids that are not in flight
	ErrValidationNotFound = errors.New("validation not found")

	errNilResult = errors.New("validator returned no result")
)

// ConfigurationError reports bad or missing configuration
type ConfigurationError = config.ConfigurationError

// ResourceError reports workspace failures outside the engine
type ResourceError = port.ResourceError

// ValidationError reports engine misuse
type ValidationError struct {
	Op      string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Op, msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidatorNotFoundError is returned when an id is not registered
type ValidatorNotFoundError struct {
	ValidatorID string
}

func (e *ValidatorNotFoundError) Error() string {
	return fmt.Sprintf("validator not found: %s", e.ValidatorID)
}

// panicError carries a recovered panic value through the error path
type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("validator panic: %v", e.value)
}
