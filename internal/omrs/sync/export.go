package sync

import (
	"context"
	"fmt"

	"github.com/ashokraman/ocl-omrs/internal/logging"
	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/classify"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
)

// ExportStore is the read surface the Exporter needs. *db.DB satisfies it.
type ExportStore interface {
	ListConcepts(ctx context.Context, filter model.ConceptFilter) ([]*model.Concept, error)
	GetConceptClass(ctx context.Context, id int64) (*model.ConceptClass, error)
	GetConceptDatatype(ctx context.Context, id int64) (*model.ConceptDatatype, error)
	ConceptNames(ctx context.Context, conceptID int64) ([]*model.ConceptName, error)
	ConceptDescriptions(ctx context.Context, conceptID int64) ([]*model.ConceptDescription, error)
	FindConceptNumeric(ctx context.Context, conceptID int64) (*model.ConceptNumeric, error)
	ReferenceEdges(ctx context.Context, conceptID int64) ([]model.ReferenceEdge, error)
	ConceptAnswers(ctx context.Context, question int64) ([]model.Link, error)
	ConceptSetMembers(ctx context.Context, owner int64) ([]model.Link, error)
}

// Exporter renders relational concepts as interchange records.
type Exporter struct {
	store      ExportStore
	classifier *classify.Classifier
	logger     *logging.Logger

	classes   map[int64]string
	datatypes map[int64]string
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(store ExportStore, classifier *classify.Classifier, logger *logging.Logger) *Exporter {
	return &Exporter{
		store:      store,
		classifier: classifier,
		logger:     logging.OrNop(logger).With("component", "export"),
		classes:    make(map[int64]string),
		datatypes:  make(map[int64]string),
	}
}

// Export is the output of a full export.
type Export struct {
	Concepts []*schema.ConceptRecord
	Mappings []*schema.MappingRecord
	Result   Result
}

// Export renders every concept matched by filter in id order.
func (e *Exporter) Export(ctx context.Context, filter model.ConceptFilter) (*Export, error) {
	concepts, err := e.store.ListConcepts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}

	out := &Export{
		Concepts: make([]*schema.ConceptRecord, 0, len(concepts)),
		Mappings: []*schema.MappingRecord{},
	}
	for _, c := range concepts {
		rec, maps, res, err := e.ExportConcept(ctx, c)
		if err != nil {
			return nil, err
		}
		out.Concepts = append(out.Concepts, rec)
		out.Mappings = append(out.Mappings, maps...)
		out.Result.Add(res)
	}

	e.logger.Info("export complete", out.Result.Fields()...)
	return out, nil
}

// ExportRetired returns the ids of retired concepts matched by filter.
func (e *Exporter) ExportRetired(ctx context.Context, filter model.ConceptFilter) ([]int64, *Result, error) {
	filter.RetiredOnly = true
	concepts, err := e.store.ListConcepts(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list retired concepts: %w", err)
	}

	res := &Result{}
	ids := make([]int64, 0, len(concepts))
	for _, c := range concepts {
		ids = append(ids, c.ID)
		res.ConceptsProcessed++
		res.RetiredConcepts++
	}
	e.logger.Info("retired export complete", "retired_concepts", res.RetiredConcepts)
	return ids, res, nil
}

// ExportConcept renders one concept and all of its outgoing relationships.
func (e *Exporter) ExportConcept(ctx context.Context, c *model.Concept) (*schema.ConceptRecord, []*schema.MappingRecord, *Result, error) {
	res := &Result{ConceptsProcessed: 1}

	class, err := e.className(ctx, c.ClassID)
	if err != nil {
		return nil, nil, nil, err
	}
	datatype, err := e.datatypeName(ctx, c.DatatypeID)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := &schema.ConceptRecord{
		ID:           c.ID,
		ConceptClass: class,
		Datatype:     datatype,
		ExternalID:   c.UUID,
		Retired:      c.Retired,
		Names:        []schema.NameRecord{},
		Descriptions: []schema.DescriptionRecord{},
	}
	if c.Retired {
		res.RetiredConcepts++
	}
	if c.IsSet {
		isSet := true
		rec.Extras.IsSet = &isSet
	}

	names, err := e.store.ConceptNames(ctx, c.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to export concept %d: %w", c.ID, err)
	}
	for _, n := range names {
		rec.Names = append(rec.Names, schema.NameRecord{
			Name:            n.Name,
			NameType:        n.NameType,
			Locale:          n.Locale,
			LocalePreferred: n.LocalePreferred,
			ExternalID:      n.UUID,
		})
	}

	descriptions, err := e.store.ConceptDescriptions(ctx, c.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to export concept %d: %w", c.ID, err)
	}
	for _, d := range descriptions {
		rec.Descriptions = append(rec.Descriptions, schema.DescriptionRecord{
			Description: d.Description,
			Locale:      d.Locale,
			ExternalID:  d.UUID,
		})
	}

	if datatype == omrs.DatatypeNumeric {
		num, err := e.store.FindConceptNumeric(ctx, c.ID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to export concept %d: %w", c.ID, err)
		}
		if num != nil {
			rec.Extras.HiAbsolute = num.HiAbsolute
			rec.Extras.HiCritical = num.HiCritical
			rec.Extras.HiNormal = num.HiNormal
			rec.Extras.LowAbsolute = num.LowAbsolute
			rec.Extras.LowCritical = num.LowCritical
			rec.Extras.LowNormal = num.LowNormal
			rec.Extras.Units = num.Units
			rec.Extras.Precise = num.Precise
			rec.Extras.DisplayPrecision = num.DisplayPrecision
		}
	}

	maps, err := e.exportMappings(ctx, c, res)
	if err != nil {
		return nil, nil, nil, err
	}

	e.logger.Debug("exported concept", "id", c.ID, "mappings", len(maps))
	return rec, maps, res, nil
}

func (e *Exporter) exportMappings(ctx context.Context, c *model.Concept, res *Result) ([]*schema.MappingRecord, error) {
	var maps []*schema.MappingRecord

	edges, err := e.store.ReferenceEdges(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to export mappings of concept %d: %w", c.ID, err)
	}
	for _, edge := range edges {
		d, err := e.classifier.Edge(c.ID, edge)
		if err != nil {
			return nil, fmt.Errorf("failed to export mapping %s of concept %d: %w", edge.MapUUID, c.ID, err)
		}
		switch d.Kind {
		case classify.Self:
			res.IgnoredSelfMappings++
			e.logger.Debug("ignored self mapping", "id", c.ID, "map_type", edge.MapType)
			continue
		case classify.Internal:
			res.InternalMappings++
		case classify.External:
			res.ExternalMappings++
		}
		res.MappingsProcessed++
		maps = append(maps, d.Record)
	}

	answers, err := e.store.ConceptAnswers(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to export answers of concept %d: %w", c.ID, err)
	}
	if len(answers) > 0 {
		res.Questions++
	}
	for _, a := range answers {
		maps = append(maps, e.classifier.Answer(c.ID, a).Record)
		res.Answers++
		res.MappingsProcessed++
	}

	members, err := e.store.ConceptSetMembers(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to export set members of concept %d: %w", c.ID, err)
	}
	if len(members) > 0 {
		res.ConceptSets++
	}
	for _, m := range members {
		maps = append(maps, e.classifier.SetMember(c.ID, m).Record)
		res.SetMembers++
		res.MappingsProcessed++
	}

	return maps, nil
}

func (e *Exporter) className(ctx context.Context, id int64) (string, error) {
	if name, ok := e.classes[id]; ok {
		return name, nil
	}
	cc, err := e.store.GetConceptClass(ctx, id)
	if err != nil {
		return "", err
	}
	if cc == nil {
		return "", fmt.Errorf("concept class %d does not exist", id)
	}
	e.classes[id] = cc.Name
	return cc.Name, nil
}

func (e *Exporter) datatypeName(ctx context.Context, id int64) (string, error) {
	if name, ok := e.datatypes[id]; ok {
		return name, nil
	}
	dt, err := e.store.GetConceptDatatype(ctx, id)
	if err != nil {
		return "", err
	}
	if dt == nil {
		return "", fmt.Errorf("concept datatype %d does not exist", id)
	}
	e.datatypes[id] = dt.Name
	return dt.Name, nil
}
