package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Terminal outcomes for a request, mapped to HTTP statuses by the handlers.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyAuthorized = errors.New("user is already authorized for this tool")
)

// Messages reused across validators
const (
	MsgRequired             = "this field is required"
	MsgFutureDate           = "date cannot be in the future"
	MsgNonIncreasingReading = "end reading must be strictly greater than start reading"
	MsgInvalidUserChoice    = "you may only record borrows for yourself"
)

// ValidationError carries field-scoped, user-correctable errors. All rules
// are evaluated before returning, so every failing field is reported at once.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for a field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsValidationError unwraps err into a *ValidationError if it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
