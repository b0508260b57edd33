// Package model defines the relational entities of the concept dictionary.
//
// Every entity carries the store-assigned integer ID, set by the store when
// the row is inserted. Optional columns are pointers so NULL survives a read.
package model

import "time"

// Audit holds the creation metadata shared by every entity.
type Audit struct {
	Creator     int64
	DateCreated time.Time
}

// Concept is a dictionary entry.
type Concept struct {
	ID         int64
	UUID       string
	ClassID    int64
	DatatypeID int64
	IsSet      bool
	Retired    bool
	Audit
}

// ConceptClass categorizes concepts (Diagnosis, Test, Drug, ...).
type ConceptClass struct {
	ID   int64
	Name string
	UUID string
	Audit
}

// ConceptDatatype is the value kind of a concept (Numeric, Coded, Text, N/A, ...).
type ConceptDatatype struct {
	ID   int64
	Name string
	UUID string
	Audit
}

// ConceptName is one name of a concept. Names are never mutated.
type ConceptName struct {
	ID              int64
	ConceptID       int64
	Name            string
	Locale          string
	LocalePreferred bool
	NameType        string
	UUID            string
	Voided          bool
	Audit
}

// ConceptDescription is a free-text description of a concept.
type ConceptDescription struct {
	ID          int64
	ConceptID   int64
	Description string
	Locale      string
	UUID        string
	Audit
}

// ConceptNumeric holds the numeric metadata of a Numeric concept. The
// primary key is the concept ID.
type ConceptNumeric struct {
	ConceptID        int64
	HiAbsolute       *float64
	HiCritical       *float64
	HiNormal         *float64
	LowAbsolute      *float64
	LowCritical      *float64
	LowNormal        *float64
	Units            *string
	Precise          *bool
	DisplayPrecision *int
}

// ConceptReferenceSource is a terminology that reference terms belong to.
type ConceptReferenceSource struct {
	ID          int64
	Name        string
	Description string
	HL7Code     *string
	UUID        string
	Retired     bool
	Audit
}

// ConceptReferenceTerm is a code inside a reference source.
type ConceptReferenceTerm struct {
	ID       int64
	SourceID int64
	Code     string
	Name     *string
	UUID     string
	Retired  bool
	Audit
}

// ConceptMapType names the relationship of a reference map.
type ConceptMapType struct {
	ID   int64
	Name string
	UUID string
	Audit
}

// ConceptReferenceMap links a concept to a reference term.
type ConceptReferenceMap struct {
	ID        int64
	ConceptID int64
	TermID    int64
	MapTypeID int64
	UUID      string
	Retired   bool
	Audit
}

// ConceptAnswer records that AnswerConcept is a valid answer to Concept.
type ConceptAnswer struct {
	ID            int64
	ConceptID     int64
	AnswerConcept int64
	UUID          string
	Audit
}

// ConceptSet records that ConceptID is a member of ConceptSetID.
type ConceptSet struct {
	ID           int64
	ConceptID    int64
	ConceptSetID int64
	UUID         string
	Audit
}

// ReferenceEdge is a reference map read back for export, joined with its
// term, source and map type.
type ReferenceEdge struct {
	MapUUID    string
	MapType    string
	SourceName string
	TermCode   string
	TermName   *string
	TermUUID   string
	Retired    bool
}

// Link is a Q&A or set-membership edge read back for export. Target is the
// answer concept of a question, or the member concept of a set.
type Link struct {
	UUID   string
	Target int64
}

// ConceptFilter narrows the concepts listed for export.
type ConceptFilter struct {
	ConceptID   *int64
	RetiredOnly bool
}

// Counts holds row counts per entity kind.
type Counts struct {
	Concepts      int
	Names         int
	Descriptions  int
	Numerics      int
	Sources       int
	Terms         int
	ReferenceMaps int
	Answers       int
	SetMembers    int
}
