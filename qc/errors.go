package qc

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotRun is returned when reading the result of a check which has not
	// completed a run.
	ErrNotRun = errors.New("check has not been run")
	// ErrAlreadyRun is returned when running a check which holds a result.
	// Reset the check to run it again.
	ErrAlreadyRun = errors.New("check has already been run")
)

// CheckFailedError is returned by a strict check whose rule does not hold.
type CheckFailedError struct {
	CheckID    string
	Kind       Kind
	Exceptions Exceptions
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("check %s (%s) failed: %s", e.CheckID, e.Kind, e.Exceptions.Summary())
}

// ConfigurationError is returned when a check is given missing or
// conflicting parameters.
type ConfigurationError struct {
	CheckID string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.CheckID == "" {
		return fmt.Sprintf("invalid check configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration for check %s: %s", e.CheckID, e.Reason)
}

func configErrorf(id string, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{CheckID: id, Reason: fmt.Sprintf(format, args...)}
}
