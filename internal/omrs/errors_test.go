package omrs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"malformed", &MalformedRecordError{Kind: "concept", Field: "concept_class", Reason: "is required"}, ErrMalformedRecord, true},
		{"unresolved", &UnresolvedIdentifierError{ID: "5"}, ErrUnresolvedIdentifier, true},
		{"unclassifiable is itself", &UnclassifiableMappingError{Reason: "no target"}, ErrUnclassifiableMapping, true},
		{"unclassifiable is malformed", &UnclassifiableMappingError{Reason: "no target"}, ErrMalformedRecord, true},
		{"unrecognized", &UnrecognizedSourceError{Source: "LOINC"}, ErrUnrecognizedSource, true},
		{"malformed is not unresolved", &MalformedRecordError{Kind: "mapping"}, ErrUnresolvedIdentifier, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to import: %w", tt.err)
			if got := errors.Is(wrapped, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMalformedRecordError_Message(t *testing.T) {
	err := &MalformedRecordError{Kind: "concept", Line: 3, Field: "datatype", Reason: "is required"}
	want := `malformed concept at line 3: field "datatype" is required`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
