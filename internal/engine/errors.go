package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised while exporting one entity.
//
// Absent values are never errors. RuntimeError reports host faults,
// calculator failures, contract violations by calculators, and emitter
// failures. The underlying cause is kept in Err so errors.Is and errors.As
// reach it.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the id of the element being exported.
	Entity string

	// Set and Entry locate the failure, when known.
	Set   string
	Entry string

	// Err is the cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeHostAccess is a host data-access fault while reading a source.
	ErrCodeHostAccess RuntimeErrorCode = "HOST_ACCESS"

	// ErrCodeCalculatorFailed is an error returned by a calculator.
	ErrCodeCalculatorFailed RuntimeErrorCode = "CALCULATOR_FAILED"

	// ErrCodeMissingAccessor means a calculator reported success without
	// the value its capabilities promise.
	ErrCodeMissingAccessor RuntimeErrorCode = "MISSING_ACCESSOR"

	// ErrCodeEmitFailed is an emitter error.
	ErrCodeEmitFailed RuntimeErrorCode = "EMIT_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	loc := e.Entity
	if e.Set != "" {
		loc += " " + e.Set
	}
	if e.Entry != "" {
		loc += "." + e.Entry
	}
	msg := fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, loc)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsHostAccessError reports whether err is a host data-access fault.
func IsHostAccessError(err error) bool {
	return hasCode(err, ErrCodeHostAccess)
}

// IsCalculatorError reports whether err came from a calculator.
func IsCalculatorError(err error) bool {
	return hasCode(err, ErrCodeCalculatorFailed)
}

// IsMissingAccessorError reports whether a calculator broke its contract.
func IsMissingAccessorError(err error) bool {
	return hasCode(err, ErrCodeMissingAccessor)
}

// IsEmitError reports whether err came from the emitter.
func IsEmitError(err error) bool {
	return hasCode(err, ErrCodeEmitFailed)
}

// NewHostAccessError wraps a fault raised while reading source from entity.
func NewHostAccessError(entity, source string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeHostAccess,
		Message: fmt.Sprintf("reading %q", source),
		Entity:  entity,
		Err:     err,
	}
}

// NewCalculatorError wraps an error returned by the named calculator.
func NewCalculatorError(entity, calculator string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCalculatorFailed,
		Message: fmt.Sprintf("calculator %s failed", calculator),
		Entity:  entity,
		Err:     err,
	}
}

// NewMissingAccessorError reports a calculator result without the
// expected value shape.
func NewMissingAccessorError(entity, calculator, accessor string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingAccessor,
		Message: fmt.Sprintf("calculator %s succeeded without a %s value", calculator, accessor),
		Entity:  entity,
	}
}

// NewEmitError wraps an emitter failure.
func NewEmitError(entity, what string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeEmitFailed,
		Message: "emitting " + what,
		Entity:  entity,
		Err:     err,
	}
}

// locate fills in set and entry on a RuntimeError that lacks them.
func locate(err error, set, entry string) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		if re.Set == "" {
			re.Set = set
		}
		if re.Entry == "" {
			re.Entry = entry
		}
	}
	return err
}
