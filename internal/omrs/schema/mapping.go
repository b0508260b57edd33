package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

// MappingRecord is one line of the mapping interchange file.
//
// Exactly one of ToConceptURL (internal mapping) or ToSourceURL (external
// mapping) is set.
type MappingRecord struct {
	MapType        string `json:"map_type"`
	FromConceptURL string `json:"from_concept_url"`
	ToConceptURL   string `json:"to_concept_url,omitempty"`
	ToSourceURL    string `json:"to_source_url,omitempty"`
	ToConceptCode  string `json:"to_concept_code,omitempty"`
	ToConceptName  string `json:"to_concept_name,omitempty"`
	Retired        bool   `json:"retired"`
	ExternalID     string `json:"external_id,omitempty"`
}

// IsInternal reports whether the mapping targets a concept in the same
// dictionary.
func (m *MappingRecord) IsInternal() bool {
	return m.ToConceptURL != "" && m.ToSourceURL == ""
}

// IsExternal reports whether the mapping targets a code in another source.
func (m *MappingRecord) IsExternal() bool {
	return m.ToSourceURL != "" && m.ToConceptURL == ""
}

type rawMapping struct {
	MapType        *string `json:"map_type"`
	FromConceptURL *string `json:"from_concept_url"`
	ToConceptURL   *string `json:"to_concept_url"`
	ToSourceURL    *string `json:"to_source_url"`
	ToConceptCode  *string `json:"to_concept_code"`
	ToConceptName  *string `json:"to_concept_name"`
	ExternalID     *string `json:"external_id"`
	Retired        *bool   `json:"retired"`
}

// ParseMapping decodes and validates one mapping line.
func ParseMapping(data []byte, line int) (*MappingRecord, error) {
	var raw rawMapping
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError("mapping", line, err)
	}

	malformed := func(field, reason string) error {
		return &omrs.MalformedRecordError{Kind: "mapping", Line: line, Field: field, Reason: reason}
	}

	if raw.MapType == nil || *raw.MapType == "" {
		return nil, malformed("map_type", "is required")
	}
	if raw.FromConceptURL == nil || *raw.FromConceptURL == "" {
		return nil, malformed("from_concept_url", "is required")
	}
	if _, err := ParseConceptURL(*raw.FromConceptURL); err != nil {
		return nil, malformed("from_concept_url", err.Error())
	}

	rec := &MappingRecord{
		MapType:        *raw.MapType,
		FromConceptURL: *raw.FromConceptURL,
		ToConceptURL:   deref(raw.ToConceptURL),
		ToSourceURL:    deref(raw.ToSourceURL),
		ToConceptCode:  deref(raw.ToConceptCode),
		ToConceptName:  deref(raw.ToConceptName),
		ExternalID:     deref(raw.ExternalID),
		Retired:        raw.Retired != nil && *raw.Retired,
	}

	switch {
	case rec.ToConceptURL != "" && rec.ToSourceURL != "":
		return nil, &omrs.UnclassifiableMappingError{Line: line, Reason: "both to_concept_url and to_source_url are set"}
	case rec.ToConceptURL != "":
		if _, err := ParseConceptURL(rec.ToConceptURL); err != nil {
			return nil, malformed("to_concept_url", err.Error())
		}
	case rec.ToSourceURL != "":
		if _, err := ParseSourceURL(rec.ToSourceURL); err != nil {
			return nil, malformed("to_source_url", err.Error())
		}
		if rec.ToConceptCode == "" {
			return nil, malformed("to_concept_code", "is required for external mappings")
		}
	default:
		return nil, &omrs.UnclassifiableMappingError{Line: line, Reason: "neither to_concept_url nor to_source_url is set"}
	}

	return rec, nil
}

// decodeError converts a json decoding failure into a MalformedRecordError.
func decodeError(kind string, line int, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &omrs.MalformedRecordError{
			Kind:   kind,
			Line:   line,
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("has type %s, want %s", typeErr.Value, typeErr.Type),
		}
	}
	return &omrs.MalformedRecordError{Kind: kind, Line: line, Reason: fmt.Sprintf("invalid JSON: %v", err)}
}
