// Package classify decides how a concept relationship is represented on the
// other side of the sync.
//
// Relationships whose target lives in the dictionary being synchronized are
// internal and carry two concept URLs. Relationships into any other
// terminology are external and carry a source URL plus a literal code.
// A cross-reference from a concept to its own code is a self-mapping and is
// dropped.
package classify

import (
	"strconv"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
)

// Kind is the top-level classification of a relationship.
type Kind int

const (
	Self Kind = iota
	Internal
	External
)

func (k Kind) String() string {
	switch k {
	case Self:
		return "self"
	case Internal:
		return "internal"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Link refines an internal relationship.
type Link int

const (
	CrossReference Link = iota
	Answer
	SetMember
)

func (l Link) String() string {
	switch l {
	case Answer:
		return "answer"
	case SetMember:
		return "set-member"
	default:
		return "cross-reference"
	}
}

// Decision is the outcome of a classification.
type Decision struct {
	Kind Kind
	Link Link
	// Record is the interchange form. It is nil for self-mappings.
	Record *schema.MappingRecord
}

// Classifier classifies relationships for one dictionary.
type Classifier struct {
	// OrgID and SourceID name the dictionary in the registry.
	OrgID    string
	SourceID string
	// OwnSource is the reference source name that denotes this dictionary
	// in the relational store. Empty means OrgID.
	OwnSource string
	Directory directory.Directory
}

// OwnSourceName returns the reference source name of this dictionary.
func (c *Classifier) OwnSourceName() string {
	if c.OwnSource != "" {
		return c.OwnSource
	}
	return c.OrgID
}

func (c *Classifier) conceptURL(code string) string {
	return schema.ConceptURL(c.OrgID, c.SourceID, code)
}

// Edge classifies a reference map of the concept with relational id
// conceptID for export.
func (c *Classifier) Edge(conceptID int64, e model.ReferenceEdge) (Decision, error) {
	code := strconv.FormatInt(conceptID, 10)

	if e.SourceName == c.OwnSourceName() {
		if e.TermCode == code {
			return Decision{Kind: Self}, nil
		}
		return Decision{
			Kind: Internal,
			Link: CrossReference,
			Record: &schema.MappingRecord{
				MapType:        e.MapType,
				FromConceptURL: c.conceptURL(code),
				ToConceptURL:   c.conceptURL(e.TermCode),
				ExternalID:     e.MapUUID,
				Retired:        e.Retired,
			},
		}, nil
	}

	orgID, sourceID, ok := c.Directory.Resolve(e.SourceName)
	if !ok {
		return Decision{}, &omrs.UnrecognizedSourceError{Source: e.SourceName, Detail: "no entry in the source directory"}
	}

	rec := &schema.MappingRecord{
		MapType:        e.MapType,
		FromConceptURL: c.conceptURL(code),
		ToSourceURL:    schema.SourceURL(orgID, sourceID),
		ToConceptCode:  e.TermCode,
		ExternalID:     e.MapUUID,
		Retired:        e.Retired,
	}
	if e.TermName != nil {
		rec.ToConceptName = *e.TermName
	}
	return Decision{Kind: External, Link: CrossReference, Record: rec}, nil
}

// Answer renders a Q&A link of question as an internal mapping.
func (c *Classifier) Answer(question int64, l model.Link) Decision {
	return c.link(question, l, omrs.MapTypeQAndA, Answer)
}

// SetMember renders a set membership of owner as an internal mapping.
func (c *Classifier) SetMember(owner int64, l model.Link) Decision {
	return c.link(owner, l, omrs.MapTypeConceptSet, SetMember)
}

func (c *Classifier) link(from int64, l model.Link, mapType string, kind Link) Decision {
	return Decision{
		Kind: Internal,
		Link: kind,
		Record: &schema.MappingRecord{
			MapType:        mapType,
			FromConceptURL: c.conceptURL(strconv.FormatInt(from, 10)),
			ToConceptURL:   c.conceptURL(strconv.FormatInt(l.Target, 10)),
			ExternalID:     l.UUID,
		},
	}
}

// Record classifies an interchange mapping for import by its shape.
func (c *Classifier) Record(rec *schema.MappingRecord) (Decision, error) {
	switch {
	case rec.IsInternal():
		from, err := schema.ParseConceptURL(rec.FromConceptURL)
		if err != nil {
			return Decision{}, &omrs.MalformedRecordError{Kind: "mapping", Field: "from_concept_url", Reason: err.Error()}
		}
		to, err := schema.ParseConceptURL(rec.ToConceptURL)
		if err != nil {
			return Decision{}, &omrs.MalformedRecordError{Kind: "mapping", Field: "to_concept_url", Reason: err.Error()}
		}
		if from.Code == to.Code {
			return Decision{Kind: Self, Record: rec}, nil
		}

		d := Decision{Kind: Internal, Link: CrossReference, Record: rec}
		switch rec.MapType {
		case omrs.MapTypeQAndA:
			d.Link = Answer
		case omrs.MapTypeConceptSet:
			d.Link = SetMember
		}
		return d, nil

	case rec.IsExternal():
		return Decision{Kind: External, Link: CrossReference, Record: rec}, nil

	default:
		return Decision{}, &omrs.UnclassifiableMappingError{Reason: "mapping needs exactly one of to_concept_url or to_source_url"}
	}
}
