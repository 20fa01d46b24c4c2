// Package errors provides the error taxonomy for the captcha replenisher.
// It extends the standard errors package with wrapping helpers and one
// sentinel per failure class, so callers can decide whether to abort.
package errors

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by the replenisher wraps exactly one.
var (
	// ErrConfiguration indicates an unusable configuration (wrong captcha
	// class, unknown backend type, missing required option). Fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrGeneration indicates the external generator could not be run or
	// exited with a non-zero status. Fatal after cleanup.
	ErrGeneration = errors.New("generation failed")

	// ErrStore indicates a single generated file could not be copied into
	// the storage backend. Reported; the run continues.
	ErrStore = errors.New("store failed")

	// ErrFilesystem indicates a local filesystem failure such as temp
	// directory creation. Fatal.
	ErrFilesystem = errors.New("filesystem error")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// classError ties a concrete cause to a failure class so that both
// errors.Is(err, class) and errors.Is(err, cause) hold.
type classError struct {
	class error
	cause error
	msg   string
}

func (e *classError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.class, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.class, e.msg)
}

func (e *classError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.class}
	}
	return []error{e.class, e.cause}
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Classify marks cause as belonging to class. cause may be nil.
//
//	return errors.Classify(errors.ErrFilesystem, err, "create temp dir %s", dir)
func Classify(class, cause error, format string, args ...interface{}) error {
	return &classError{class: class, cause: cause, msg: fmt.Sprintf(format, args...)}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func New(msg string) error {
	return errors.New(msg)
}

func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return Is(err, ErrConfiguration) }

// IsGeneration reports whether err is a generator failure.
func IsGeneration(err error) bool { return Is(err, ErrGeneration) }

// IsStore reports whether err is a per-file store failure.
func IsStore(err error) bool { return Is(err, ErrStore) }

// IsFilesystem reports whether err is a local filesystem failure.
func IsFilesystem(err error) bool { return Is(err, ErrFilesystem) }
