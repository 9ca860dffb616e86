package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometryKind is returned when a subject or candidate is not a
	// Polygon or MultiPolygon.
	ErrInvalidGeometryKind = errors.New("invalid geometry kind")

	// ErrMalformedInput is returned when a payload cannot be parsed into a
	// geometry at all.
	ErrMalformedInput = errors.New("malformed input")

	// ErrTooManyCandidates is returned when a request exceeds the configured
	// candidate limit.
	ErrTooManyCandidates = errors.New("too many candidates")
)

// Role identifies which input of a coverage request a geometry came from.
type Role string

const (
	RoleSubject   Role = "subject"
	RoleCandidate Role = "candidate"
)

// InvalidGeometryKindError names the offending input.
type InvalidGeometryKindError struct {
	Role  Role
	Index int // candidate index; unused for the subject
	Kind  string
}

func (e *InvalidGeometryKindError) Error() string {
	if e.Role == RoleCandidate {
		return fmt.Sprintf("candidate %d can only be polygon or multipolygon, got %q", e.Index, e.Kind)
	}
	return fmt.Sprintf("%s can only be polygon or multipolygon, got %q", e.Role, e.Kind)
}

func (e *InvalidGeometryKindError) Unwrap() error { return ErrInvalidGeometryKind }

// MalformedInputError reports a structurally invalid payload.
type MalformedInputError struct {
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed input: %s", e.Field)
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed input: %v", e.Err)
	}
	return fmt.Sprintf("malformed input: %s: %v", e.Field, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedInput}
	}
	return []error{ErrMalformedInput, e.Err}
}

// Error codes shared by every transport.
const (
	CodeMalformedInput      = "malformed_input"
	CodeInvalidGeometryKind = "invalid_geometry_kind"
	CodeTooManyCandidates   = "too_many_candidates"
	CodeInternal            = "internal_error"
)

// ErrorCode maps err to a stable machine-readable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return CodeMalformedInput
	case errors.Is(err, ErrInvalidGeometryKind):
		return CodeInvalidGeometryKind
	case errors.Is(err, ErrTooManyCandidates):
		return CodeTooManyCandidates
	default:
		return CodeInternal
	}
}
