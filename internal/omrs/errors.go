// Package omrs holds the error taxonomy and shared vocabulary of the
// concept/mapping synchronization engine.
package omrs

import (
	"errors"
	"fmt"
)

// Common errors returned by the synchronization engine.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, omrs.ErrUnresolvedIdentifier) {
//	    // mapping points at a concept that was never materialized
//	}
var (
	// ErrMalformedRecord is returned when an interchange record is missing
	// a required field or a field has an unexpected type.
	ErrMalformedRecord = errors.New("malformed interchange record")

	// ErrUnresolvedIdentifier is returned when a mapping references a concept
	// identifier that has not been materialized in the current run.
	ErrUnresolvedIdentifier = errors.New("unresolved concept identifier")

	// ErrUnclassifiableMapping is returned when a mapping record is neither
	// internal-shaped nor external-shaped.
	ErrUnclassifiableMapping = errors.New("unclassifiable mapping record")

	// ErrUnrecognizedSource is returned when a reference source has no
	// counterpart in the source directory or in the remote registry.
	ErrUnrecognizedSource = errors.New("unrecognized reference source")

	// ErrIdentifierConflict is returned when one interchange identifier is
	// registered against two different relational identifiers in a run.
	ErrIdentifierConflict = errors.New("conflicting identifier registration")

	// ErrInvalidConfig is returned for configuration problems detected
	// before any processing begins.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MalformedRecordError describes a rejected interchange record.
type MalformedRecordError struct {
	Kind   string // "concept" or "mapping"
	Line   int    // 1-based line number, 0 when unknown
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	loc := e.Kind
	if e.Line > 0 {
		loc = fmt.Sprintf("%s at line %d", e.Kind, e.Line)
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed %s: %s", loc, e.Reason)
	}
	return fmt.Sprintf("malformed %s: field %q %s", loc, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// UnresolvedIdentifierError is returned by the identifier resolver.
type UnresolvedIdentifierError struct {
	ID string
}

func (e *UnresolvedIdentifierError) Error() string {
	return fmt.Sprintf("concept %q has not been materialized in this run", e.ID)
}

// Is reports whether target is ErrUnresolvedIdentifier.
func (e *UnresolvedIdentifierError) Is(target error) bool {
	return target == ErrUnresolvedIdentifier
}

// UnclassifiableMappingError is a malformed mapping whose shape matches
// neither the internal nor the external form.
type UnclassifiableMappingError struct {
	Line   int
	Reason string
}

func (e *UnclassifiableMappingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("unclassifiable mapping at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("unclassifiable mapping: %s", e.Reason)
}

// Is matches both ErrUnclassifiableMapping and ErrMalformedRecord.
func (e *UnclassifiableMappingError) Is(target error) bool {
	return target == ErrUnclassifiableMapping || target == ErrMalformedRecord
}

// UnrecognizedSourceError is returned by the reference source validator and
// by directory lookups.
type UnrecognizedSourceError struct {
	Source string
	Detail string
}

func (e *UnrecognizedSourceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("reference source %q is not recognized", e.Source)
	}
	return fmt.Sprintf("reference source %q is not recognized: %s", e.Source, e.Detail)
}

// Is reports whether target is ErrUnrecognizedSource.
func (e *UnrecognizedSourceError) Is(target error) bool {
	return target == ErrUnrecognizedSource
}

// Map types with fixed meaning in the interchange format.
const (
	MapTypeSameAs     = "SAME-AS"
	MapTypeQAndA      = "Q-AND-A"
	MapTypeConceptSet = "CONCEPT-SET"
)

// DatatypeNumeric is the datatype name that carries numeric metadata.
const DatatypeNumeric = "Numeric"
