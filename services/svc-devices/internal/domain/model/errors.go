package model

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidDeviceID  = errors.New("invalid device ID")
	ErrInvalidState     = errors.New("invalid device state")
	ErrInvalidPatch     = errors.New("invalid patch document")
	ErrDuplicateDevice  = errors.New("device already exists")
	ErrDatabaseQuery    = errors.New("database query error")

	// ErrStaleDevice is returned by guarded writes when the stored record is
	// gone or became IN_USE after it was loaded.
	ErrStaleDevice = errors.New("device changed since it was loaded")
)

type DeviceNotFoundError struct {
	ID DeviceID
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device with id %s not found", e.ID)
}

func (e *DeviceNotFoundError) Is(target error) bool {
	return target == ErrDeviceNotFound
}

func NewDeviceNotFoundError(id DeviceID) *DeviceNotFoundError {
	return &DeviceNotFoundError{ID: id}
}

// InvalidOperationError rejects a mutation that the device's current state or
// immutable fields do not allow.
type InvalidOperationError struct {
	DeviceID DeviceID
	Reason   string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("device with id %s %s", e.DeviceID, e.Reason)
}

func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

type ValidationError struct {
	Field   string
	Message string
	Code    string
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	return v.Errors[0].Message
}

func (v *ValidationErrors) Add(field, message, code string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Fields flattens the errors into a field to message map, keeping the first message per field.
func (v *ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		if _, ok := fields[e.Field]; !ok {
			fields[e.Field] = e.Message
		}
	}

	return fields
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}
