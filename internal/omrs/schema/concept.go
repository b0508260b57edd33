package schema

import (
	"encoding/json"
	"fmt"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

// ConceptRecord is one line of the concept interchange file.
type ConceptRecord struct {
	ID           int64               `json:"id"`
	ConceptClass string              `json:"concept_class"`
	Datatype     string              `json:"datatype"`
	ExternalID   string              `json:"external_id,omitempty"`
	Retired      bool                `json:"retired"`
	Names        []NameRecord        `json:"names"`
	Descriptions []DescriptionRecord `json:"descriptions"`
	Extras       Extras              `json:"extras"`
}

// NameRecord is a concept name inside a ConceptRecord.
type NameRecord struct {
	Name            string `json:"name"`
	NameType        string `json:"name_type,omitempty"`
	Locale          string `json:"locale"`
	LocalePreferred bool   `json:"locale_preferred"`
	ExternalID      string `json:"external_id,omitempty"`
}

// DescriptionRecord is a concept description inside a ConceptRecord.
type DescriptionRecord struct {
	Description string `json:"description"`
	Locale      string `json:"locale"`
	ExternalID  string `json:"external_id,omitempty"`
}

// Extras carries the optional concept attributes. Every field is a pointer so
// that an absent value stays absent through a round trip.
type Extras struct {
	IsSet            *bool    `json:"is_set,omitempty"`
	HiAbsolute       *float64 `json:"hi_absolute,omitempty"`
	HiCritical       *float64 `json:"hi_critical,omitempty"`
	HiNormal         *float64 `json:"hi_normal,omitempty"`
	LowAbsolute      *float64 `json:"low_absolute,omitempty"`
	LowCritical      *float64 `json:"low_critical,omitempty"`
	LowNormal        *float64 `json:"low_normal,omitempty"`
	Units            *string  `json:"units,omitempty"`
	Precise          *bool    `json:"precise,omitempty"`
	DisplayPrecision *int     `json:"display_precision,omitempty"`
}

// HasNumeric reports whether any numeric metadata field is present.
func (e Extras) HasNumeric() bool {
	return e.HiAbsolute != nil || e.HiCritical != nil || e.HiNormal != nil ||
		e.LowAbsolute != nil || e.LowCritical != nil || e.LowNormal != nil ||
		e.Units != nil || e.Precise != nil || e.DisplayPrecision != nil
}

// Code returns the concept identifier as it appears in concept URLs.
func (c *ConceptRecord) Code() string {
	return fmt.Sprintf("%d", c.ID)
}

// IsNumeric reports whether the concept carries numeric metadata.
func (c *ConceptRecord) IsNumeric() bool {
	return c.Datatype == omrs.DatatypeNumeric
}

type rawName struct {
	Name            *string `json:"name"`
	NameType        *string `json:"name_type"`
	Locale          *string `json:"locale"`
	LocalePreferred *bool   `json:"locale_preferred"`
	ExternalID      *string `json:"external_id"`
}

type rawDescription struct {
	Description *string `json:"description"`
	Locale      *string `json:"locale"`
	ExternalID  *string `json:"external_id"`
}

type rawConcept struct {
	ID           *int64            `json:"id"`
	ConceptClass *string           `json:"concept_class"`
	Datatype     *string           `json:"datatype"`
	ExternalID   *string           `json:"external_id"`
	Retired      *bool             `json:"retired"`
	Names        *[]rawName        `json:"names"`
	Descriptions *[]rawDescription `json:"descriptions"`
	Extras       *Extras           `json:"extras"`
}

// ParseConcept decodes and validates one concept line. line is the 1-based
// line number used in error messages (0 when unknown).
func ParseConcept(data []byte, line int) (*ConceptRecord, error) {
	var raw rawConcept
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError("concept", line, err)
	}

	malformed := func(field, reason string) error {
		return &omrs.MalformedRecordError{Kind: "concept", Line: line, Field: field, Reason: reason}
	}

	if raw.ID == nil {
		return nil, malformed("id", "is required")
	}
	if raw.ConceptClass == nil || *raw.ConceptClass == "" {
		return nil, malformed("concept_class", "is required")
	}
	if raw.Datatype == nil || *raw.Datatype == "" {
		return nil, malformed("datatype", "is required")
	}
	if raw.Names == nil {
		return nil, malformed("names", "is required")
	}

	rec := &ConceptRecord{
		ID:           *raw.ID,
		ConceptClass: *raw.ConceptClass,
		Datatype:     *raw.Datatype,
		ExternalID:   deref(raw.ExternalID),
		Retired:      raw.Retired != nil && *raw.Retired,
		Names:        make([]NameRecord, 0, len(*raw.Names)),
		Descriptions: []DescriptionRecord{},
	}
	if raw.Extras != nil {
		rec.Extras = *raw.Extras
	}

	for i, n := range *raw.Names {
		if n.Name == nil || *n.Name == "" {
			return nil, malformed(fmt.Sprintf("names[%d].name", i), "is required")
		}
		if n.Locale == nil || *n.Locale == "" {
			return nil, malformed(fmt.Sprintf("names[%d].locale", i), "is required")
		}
		rec.Names = append(rec.Names, NameRecord{
			Name:            *n.Name,
			NameType:        deref(n.NameType),
			Locale:          *n.Locale,
			LocalePreferred: n.LocalePreferred != nil && *n.LocalePreferred,
			ExternalID:      deref(n.ExternalID),
		})
	}

	if raw.Descriptions != nil {
		for i, d := range *raw.Descriptions {
			if d.Description == nil || *d.Description == "" {
				return nil, malformed(fmt.Sprintf("descriptions[%d].description", i), "is required")
			}
			if d.Locale == nil || *d.Locale == "" {
				return nil, malformed(fmt.Sprintf("descriptions[%d].locale", i), "is required")
			}
			rec.Descriptions = append(rec.Descriptions, DescriptionRecord{
				Description: *d.Description,
				Locale:      *d.Locale,
				ExternalID:  deref(d.ExternalID),
			})
		}
	}

	// A concept is found again by external id or by one of its names.
	if rec.ExternalID == "" && len(rec.Names) == 0 {
		return nil, malformed("names", "must not be empty when external_id is absent")
	}

	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
