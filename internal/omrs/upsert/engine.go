// Package upsert implements find-or-create for every dictionary entity.
//
// Each operation looks the entity up by its natural key and returns the
// existing row unchanged when found; otherwise it creates the row with the
// engine's creation metadata. The created flag reports which happened, so a
// second run over the same input reports zero creations.
package upsert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
)

// Store is the persistence surface the engine needs. Finders return
// (nil, nil) on a miss; inserters assign the new primary key.
//
// *db.DB satisfies Store.
type Store interface {
	FindConceptByUUID(ctx context.Context, uuid string) (*model.Concept, error)
	FindConceptByName(ctx context.Context, name, locale string, preferred bool) (*model.Concept, error)
	InsertConcept(ctx context.Context, c *model.Concept) error

	FindConceptClass(ctx context.Context, name string) (*model.ConceptClass, error)
	InsertConceptClass(ctx context.Context, cc *model.ConceptClass) error
	FindConceptDatatype(ctx context.Context, name string) (*model.ConceptDatatype, error)
	InsertConceptDatatype(ctx context.Context, dt *model.ConceptDatatype) error

	FindConceptName(ctx context.Context, conceptID int64, name, locale string, preferred bool) (*model.ConceptName, error)
	InsertConceptName(ctx context.Context, n *model.ConceptName) error
	FindConceptDescription(ctx context.Context, conceptID int64, description string) (*model.ConceptDescription, error)
	InsertConceptDescription(ctx context.Context, d *model.ConceptDescription) error
	FindConceptNumeric(ctx context.Context, conceptID int64) (*model.ConceptNumeric, error)
	InsertConceptNumeric(ctx context.Context, n *model.ConceptNumeric) error

	FindReferenceSource(ctx context.Context, name string) (*model.ConceptReferenceSource, error)
	InsertReferenceSource(ctx context.Context, s *model.ConceptReferenceSource) error
	FindReferenceTerm(ctx context.Context, sourceID int64, code string) (*model.ConceptReferenceTerm, error)
	InsertReferenceTerm(ctx context.Context, t *model.ConceptReferenceTerm) error
	FindMapType(ctx context.Context, name string) (*model.ConceptMapType, error)
	InsertMapType(ctx context.Context, mt *model.ConceptMapType) error
	FindReferenceMap(ctx context.Context, conceptID, termID, mapTypeID int64) (*model.ConceptReferenceMap, error)
	InsertReferenceMap(ctx context.Context, m *model.ConceptReferenceMap) error

	FindConceptAnswer(ctx context.Context, question, answer int64) (*model.ConceptAnswer, error)
	InsertConceptAnswer(ctx context.Context, a *model.ConceptAnswer) error
	FindConceptSet(ctx context.Context, member, owner int64) (*model.ConceptSet, error)
	InsertConceptSet(ctx context.Context, s *model.ConceptSet) error
}

// Engine performs find-or-create against a Store.
type Engine struct {
	store   Store
	creator int64
	now     func() time.Time
	newUUID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCreator sets the user id recorded as creator of new rows.
func WithCreator(id int64) Option {
	return func(e *Engine) { e.creator = id }
}

// WithClock sets the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithUUIDs sets the generator for identifiers of rows whose record has none.
func WithUUIDs(gen func() string) Option {
	return func(e *Engine) { e.newUUID = gen }
}

// New creates an Engine. Defaults: creator 1, time.Now, random v4 UUIDs.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		creator: 1,
		now:     time.Now,
		newUUID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) audit() model.Audit {
	return model.Audit{Creator: e.creator, DateCreated: e.now()}
}

func (e *Engine) uuidOr(id string) string {
	if id != "" {
		return id
	}
	return e.newUUID()
}

// ConceptInput is the concept-level part of a concept record.
type ConceptInput struct {
	UUID     string
	Class    string
	Datatype string
	IsSet    bool
	Retired  bool
	Names    []schema.NameRecord
}

// ConceptInputFrom extracts the concept-level fields of a record.
func ConceptInputFrom(rec *schema.ConceptRecord) ConceptInput {
	return ConceptInput{
		UUID:     rec.ExternalID,
		Class:    rec.ConceptClass,
		Datatype: rec.Datatype,
		IsSet:    rec.Extras.IsSet != nil && *rec.Extras.IsSet,
		Retired:  rec.Retired,
		Names:    rec.Names,
	}
}

// Concept finds the concept by uuid, then by any name signature
// (text, locale, locale_preferred), and creates it when neither matches.
func (e *Engine) Concept(ctx context.Context, in ConceptInput) (*model.Concept, bool, error) {
	if in.UUID != "" {
		c, err := e.store.FindConceptByUUID(ctx, in.UUID)
		if err != nil {
			return nil, false, err
		}
		if c != nil {
			return c, false, nil
		}
	}

	for _, n := range in.Names {
		c, err := e.store.FindConceptByName(ctx, n.Name, n.Locale, n.LocalePreferred)
		if err != nil {
			return nil, false, err
		}
		if c != nil {
			return c, false, nil
		}
	}

	class, _, err := e.ConceptClass(ctx, in.Class)
	if err != nil {
		return nil, false, err
	}
	datatype, _, err := e.Datatype(ctx, in.Datatype)
	if err != nil {
		return nil, false, err
	}

	c := &model.Concept{
		UUID:       e.uuidOr(in.UUID),
		ClassID:    class.ID,
		DatatypeID: datatype.ID,
		IsSet:      in.IsSet,
		Retired:    in.Retired,
		Audit:      e.audit(),
	}
	if err := e.store.InsertConcept(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// ConceptClass finds or creates the class named name.
func (e *Engine) ConceptClass(ctx context.Context, name string) (*model.ConceptClass, bool, error) {
	cc, err := e.store.FindConceptClass(ctx, name)
	if err != nil || cc != nil {
		return cc, false, err
	}
	cc = &model.ConceptClass{Name: name, UUID: e.newUUID(), Audit: e.audit()}
	if err := e.store.InsertConceptClass(ctx, cc); err != nil {
		return nil, false, err
	}
	return cc, true, nil
}

// Datatype finds or creates the datatype named name.
func (e *Engine) Datatype(ctx context.Context, name string) (*model.ConceptDatatype, bool, error) {
	dt, err := e.store.FindConceptDatatype(ctx, name)
	if err != nil || dt != nil {
		return dt, false, err
	}
	dt = &model.ConceptDatatype{Name: name, UUID: e.newUUID(), Audit: e.audit()}
	if err := e.store.InsertConceptDatatype(ctx, dt); err != nil {
		return nil, false, err
	}
	return dt, true, nil
}

// Name finds or creates a name of conceptID.
func (e *Engine) Name(ctx context.Context, conceptID int64, n schema.NameRecord) (*model.ConceptName, bool, error) {
	existing, err := e.store.FindConceptName(ctx, conceptID, n.Name, n.Locale, n.LocalePreferred)
	if err != nil || existing != nil {
		return existing, false, err
	}
	name := &model.ConceptName{
		ConceptID:       conceptID,
		Name:            n.Name,
		Locale:          n.Locale,
		LocalePreferred: n.LocalePreferred,
		NameType:        n.NameType,
		UUID:            e.uuidOr(n.ExternalID),
		Audit:           e.audit(),
	}
	if err := e.store.InsertConceptName(ctx, name); err != nil {
		return nil, false, err
	}
	return name, true, nil
}

// Description finds or creates a description of conceptID.
func (e *Engine) Description(ctx context.Context, conceptID int64, d schema.DescriptionRecord) (*model.ConceptDescription, bool, error) {
	existing, err := e.store.FindConceptDescription(ctx, conceptID, d.Description)
	if err != nil || existing != nil {
		return existing, false, err
	}
	desc := &model.ConceptDescription{
		ConceptID:   conceptID,
		Description: d.Description,
		Locale:      d.Locale,
		UUID:        e.uuidOr(d.ExternalID),
		Audit:       e.audit(),
	}
	if err := e.store.InsertConceptDescription(ctx, desc); err != nil {
		return nil, false, err
	}
	return desc, true, nil
}

// Numeric finds or creates the numeric metadata of conceptID. Only fields
// present in extras are set; the rest stay NULL.
func (e *Engine) Numeric(ctx context.Context, conceptID int64, extras schema.Extras) (*model.ConceptNumeric, bool, error) {
	existing, err := e.store.FindConceptNumeric(ctx, conceptID)
	if err != nil || existing != nil {
		return existing, false, err
	}
	n := &model.ConceptNumeric{
		ConceptID:        conceptID,
		HiAbsolute:       extras.HiAbsolute,
		HiCritical:       extras.HiCritical,
		HiNormal:         extras.HiNormal,
		LowAbsolute:      extras.LowAbsolute,
		LowCritical:      extras.LowCritical,
		LowNormal:        extras.LowNormal,
		Units:            extras.Units,
		Precise:          extras.Precise,
		DisplayPrecision: extras.DisplayPrecision,
	}
	if err := e.store.InsertConceptNumeric(ctx, n); err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// ReferenceSource finds or creates the reference source named name.
func (e *Engine) ReferenceSource(ctx context.Context, name string) (*model.ConceptReferenceSource, bool, error) {
	s, err := e.store.FindReferenceSource(ctx, name)
	if err != nil || s != nil {
		return s, false, err
	}
	s = &model.ConceptReferenceSource{
		Name:        name,
		Description: fmt.Sprintf("%s reference source", name),
		UUID:        e.newUUID(),
		Audit:       e.audit(),
	}
	if err := e.store.InsertReferenceSource(ctx, s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// ReferenceTerm finds or creates the term code in sourceID. name is stored
// only when the term is created.
func (e *Engine) ReferenceTerm(ctx context.Context, sourceID int64, code string, name *string) (*model.ConceptReferenceTerm, bool, error) {
	t, err := e.store.FindReferenceTerm(ctx, sourceID, code)
	if err != nil || t != nil {
		return t, false, err
	}
	t = &model.ConceptReferenceTerm{
		SourceID: sourceID,
		Code:     code,
		Name:     name,
		UUID:     e.newUUID(),
		Audit:    e.audit(),
	}
	if err := e.store.InsertReferenceTerm(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// MapType finds or creates the map type named name.
func (e *Engine) MapType(ctx context.Context, name string) (*model.ConceptMapType, bool, error) {
	mt, err := e.store.FindMapType(ctx, name)
	if err != nil || mt != nil {
		return mt, false, err
	}
	mt = &model.ConceptMapType{Name: name, UUID: e.newUUID(), Audit: e.audit()}
	if err := e.store.InsertMapType(ctx, mt); err != nil {
		return nil, false, err
	}
	return mt, true, nil
}

// ReferenceMap finds or creates the map (conceptID, termID, mapTypeID).
func (e *Engine) ReferenceMap(ctx context.Context, conceptID, termID, mapTypeID int64, id string, retired bool) (*model.ConceptReferenceMap, bool, error) {
	m, err := e.store.FindReferenceMap(ctx, conceptID, termID, mapTypeID)
	if err != nil || m != nil {
		return m, false, err
	}
	m = &model.ConceptReferenceMap{
		ConceptID: conceptID,
		TermID:    termID,
		MapTypeID: mapTypeID,
		UUID:      e.uuidOr(id),
		Retired:   retired,
		Audit:     e.audit(),
	}
	if err := e.store.InsertReferenceMap(ctx, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Answer finds or creates the link making answer a valid answer to question.
func (e *Engine) Answer(ctx context.Context, question, answer int64, id string) (*model.ConceptAnswer, bool, error) {
	a, err := e.store.FindConceptAnswer(ctx, question, answer)
	if err != nil || a != nil {
		return a, false, err
	}
	a = &model.ConceptAnswer{ConceptID: question, AnswerConcept: answer, UUID: e.uuidOr(id), Audit: e.audit()}
	if err := e.store.InsertConceptAnswer(ctx, a); err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// SetMember finds or creates the membership of member in owner.
func (e *Engine) SetMember(ctx context.Context, member, owner int64, id string) (*model.ConceptSet, bool, error) {
	s, err := e.store.FindConceptSet(ctx, member, owner)
	if err != nil || s != nil {
		return s, false, err
	}
	s = &model.ConceptSet{ConceptID: member, ConceptSetID: owner, UUID: e.uuidOr(id), Audit: e.audit()}
	if err := e.store.InsertConceptSet(ctx, s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}
