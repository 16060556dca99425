package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrObjectExists  = errors.New("object already exists")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration error")
	ErrProvider      = errors.New("prediction provider error")
	ErrGeneration    = errors.New("generation failed")
	ErrStorage       = errors.New("storage error")
	ErrPersistence   = errors.New("persistence error")
	ErrTimeout       = errors.New("prediction timed out")
)

// MissingFieldsMessage is the client-facing message for absent required fields.
const MissingFieldsMessage = "Missing required fields"

// FieldError names one offending request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field that made a request unusable.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OnlyMissing reports whether every problem is an absent required field.
func (e *ValidationError) OnlyMissing() bool {
	for _, f := range e.Fields {
		if f.Reason != "required" {
			return false
		}
	}
	return true
}

// Names returns the offending field names in the order they were added.
func (e *ValidationError) Names() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

func (e *ValidationError) Error() string {
	if e.OnlyMissing() {
		return fmt.Sprintf("%s: %s", MissingFieldsMessage, strings.Join(e.Names(), ", "))
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "Invalid request fields: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Kind names the taxonomy bucket of err, e.g. "GenerationError".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrTimeout):
		return "TimeoutError"
	case errors.Is(err, ErrProvider):
		return "ProviderError"
	case errors.Is(err, ErrGeneration):
		return "GenerationError"
	case errors.Is(err, ErrStorage):
		return "StorageError"
	case errors.Is(err, ErrPersistence):
		return "PersistenceError"
	case errors.Is(err, ErrNotFound):
		return "NotFoundError"
	default:
		return "Error"
	}
}
