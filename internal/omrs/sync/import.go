package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ashokraman/ocl-omrs/internal/logging"
	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/classify"
	"github.com/ashokraman/ocl-omrs/internal/omrs/resolver"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
	"github.com/ashokraman/ocl-omrs/internal/omrs/upsert"
)

// Importer materializes interchange records in the relational store.
type Importer struct {
	store      upsert.Store
	engine     *upsert.Engine
	classifier *classify.Classifier
	logger     *logging.Logger

	conceptID string
	hooks     []MappingHook
}

// ImportOption configures an Importer.
type ImportOption func(*Importer)

// WithConceptFilter limits the import to the concept with interchange id
// code and the mappings that start from it. Other concepts are not written;
// those that already exist in the store (by external id) stay resolvable so
// the selected concept's mappings can reach them.
func WithConceptFilter(code string) ImportOption {
	return func(im *Importer) { im.conceptID = code }
}

// WithMappingHook adds a hook run after every internal mapping.
func WithMappingHook(h MappingHook) ImportOption {
	return func(im *Importer) { im.hooks = append(im.hooks, h) }
}

// NewImporter creates an Importer. A nil logger discards output.
func NewImporter(store upsert.Store, engine *upsert.Engine, classifier *classify.Classifier, logger *logging.Logger, opts ...ImportOption) *Importer {
	im := &Importer{
		store:      store,
		engine:     engine,
		classifier: classifier,
		logger:     logging.OrNop(logger).With("component", "import"),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import runs both phases over the given records. Every concept is
// materialized before the first mapping is processed. External mappings
// into sources the directory cannot name are rejected before anything is
// written.
func (im *Importer) Import(ctx context.Context, concepts []*schema.ConceptRecord, mappings []*schema.MappingRecord) (*Result, error) {
	ids := resolver.New()
	total := &Result{}

	if err := im.CheckSources(mappings); err != nil {
		return total, err
	}

	res, err := im.ImportConcepts(ctx, ids, concepts)
	total.Add(res)
	if err != nil {
		return total, err
	}

	res, err = im.ImportMappings(ctx, ids, mappings)
	total.Add(res)
	if err != nil {
		return total, err
	}

	im.logger.Info("import complete", total.Fields()...)
	return total, nil
}

// ImportConcepts is phase one: find-or-create every concept and register
// its interchange id with ids.
func (im *Importer) ImportConcepts(ctx context.Context, ids *resolver.Resolver, concepts []*schema.ConceptRecord) (*Result, error) {
	res := &Result{}

	for _, rec := range concepts {
		if im.conceptID != "" && rec.Code() != im.conceptID {
			if err := im.seed(ctx, ids, rec); err != nil {
				return res, err
			}
			continue
		}

		r, err := im.ImportConcept(ctx, ids, rec)
		res.Add(r)
		if err != nil {
			return res, err
		}
	}

	if im.conceptID != "" && res.ConceptsProcessed == 0 {
		im.logger.Warn("selected concept not found in concept file", "concept_id", im.conceptID)
	}
	return res, nil
}

// seed registers a concept that is outside the filter when it already
// exists in the store.
func (im *Importer) seed(ctx context.Context, ids *resolver.Resolver, rec *schema.ConceptRecord) error {
	if rec.ExternalID == "" {
		return nil
	}
	c, err := im.store.FindConceptByUUID(ctx, rec.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to look up concept %s: %w", rec.Code(), err)
	}
	if c == nil {
		return nil
	}
	return ids.Register(rec.Code(), c.ID)
}

// ImportConcept materializes one concept with its names, descriptions and
// numeric metadata.
func (im *Importer) ImportConcept(ctx context.Context, ids *resolver.Resolver, rec *schema.ConceptRecord) (*Result, error) {
	res := &Result{ConceptsProcessed: 1}

	c, created, err := im.engine.Concept(ctx, upsert.ConceptInputFrom(rec))
	if err != nil {
		return res, fmt.Errorf("failed to import concept %s: %w", rec.Code(), err)
	}
	if created {
		res.ConceptsCreated++
	}
	if rec.Retired {
		res.RetiredConcepts++
	}

	if err := ids.Register(rec.Code(), c.ID); err != nil {
		return res, fmt.Errorf("failed to import concept %s: %w", rec.Code(), err)
	}

	for _, n := range rec.Names {
		_, created, err := im.engine.Name(ctx, c.ID, n)
		if err != nil {
			return res, fmt.Errorf("failed to import name %q of concept %s: %w", n.Name, rec.Code(), err)
		}
		if created {
			res.NamesCreated++
		}
	}

	for _, d := range rec.Descriptions {
		_, created, err := im.engine.Description(ctx, c.ID, d)
		if err != nil {
			return res, fmt.Errorf("failed to import description of concept %s: %w", rec.Code(), err)
		}
		if created {
			res.DescriptionsCreated++
		}
	}

	if rec.IsNumeric() {
		_, created, err := im.engine.Numeric(ctx, c.ID, rec.Extras)
		if err != nil {
			return res, fmt.Errorf("failed to import numeric metadata of concept %s: %w", rec.Code(), err)
		}
		if created {
			res.NumericsCreated++
		}
	}

	im.logger.Debug("imported concept", "id", rec.Code(), "relational_id", c.ID, "created", created)
	return res, nil
}

// CheckSources verifies that every selected external mapping targets a
// source the directory maps back to a local name.
func (im *Importer) CheckSources(mappings []*schema.MappingRecord) error {
	for _, rec := range mappings {
		ok, err := im.selects(rec)
		if err != nil {
			return err
		}
		if !ok || !rec.IsExternal() {
			continue
		}
		if _, err := im.localSource(rec); err != nil {
			return fmt.Errorf("failed to import mapping %s -> %s %s: %w", rec.FromConceptURL, rec.ToSourceURL, rec.ToConceptCode, err)
		}
	}
	return nil
}

// ImportMappings is phase two: every mapping is resolved through ids.
func (im *Importer) ImportMappings(ctx context.Context, ids *resolver.Resolver, mappings []*schema.MappingRecord) (*Result, error) {
	res := &Result{}

	for _, rec := range mappings {
		ok, err := im.selects(rec)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}

		if err := im.ImportMapping(ctx, ids, rec, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// selects reports whether rec passes the concept filter.
func (im *Importer) selects(rec *schema.MappingRecord) (bool, error) {
	if im.conceptID == "" {
		return true, nil
	}
	from, err := schema.ParseConceptURL(rec.FromConceptURL)
	if err != nil {
		return false, &omrs.MalformedRecordError{Kind: "mapping", Field: "from_concept_url", Reason: err.Error()}
	}
	return from.Code == im.conceptID, nil
}

// ImportMapping classifies and materializes one mapping, accumulating into res.
func (im *Importer) ImportMapping(ctx context.Context, ids *resolver.Resolver, rec *schema.MappingRecord, res *Result) error {
	d, err := im.classifier.Record(rec)
	if err != nil {
		return fmt.Errorf("failed to import mapping from %s: %w", rec.FromConceptURL, err)
	}
	res.MappingsProcessed++

	if d.Kind == classify.Self {
		res.IgnoredSelfMappings++
		im.logger.Debug("ignored self mapping", "from", rec.FromConceptURL, "map_type", rec.MapType)
		return nil
	}

	from, err := resolveURL(ids, rec.FromConceptURL)
	if err != nil {
		return fmt.Errorf("failed to import mapping from %s: %w", rec.FromConceptURL, err)
	}

	var created bool
	switch d.Kind {
	case classify.Internal:
		to, err := resolveURL(ids, rec.ToConceptURL)
		if err != nil {
			return fmt.Errorf("failed to import mapping to %s: %w", rec.ToConceptURL, err)
		}
		created, err = im.internal(ctx, d.Link, from, to, rec, res)
		if err != nil {
			return fmt.Errorf("failed to import mapping %s -> %s: %w", rec.FromConceptURL, rec.ToConceptURL, err)
		}
		for _, h := range im.hooks {
			n, err := h.AfterInternal(ctx, im.engine, InternalMapping{
				Record:    rec,
				Link:      d.Link,
				FromID:    from,
				ToID:      to,
				OwnSource: im.classifier.OwnSourceName(),
			})
			if err != nil {
				return fmt.Errorf("mapping hook failed for %s: %w", rec.FromConceptURL, err)
			}
			res.HookMappings += n
		}

	case classify.External:
		created, err = im.external(ctx, from, rec)
		if err != nil {
			return fmt.Errorf("failed to import mapping %s -> %s %s: %w", rec.FromConceptURL, rec.ToSourceURL, rec.ToConceptCode, err)
		}
		res.ExternalMappings++
	}

	if created {
		res.MappingsCreated++
	}
	im.logger.Debug("imported mapping", "from", rec.FromConceptURL, "map_type", rec.MapType, "kind", d.Kind.String(), "created", created)
	return nil
}

func (im *Importer) internal(ctx context.Context, link classify.Link, from, to int64, rec *schema.MappingRecord, res *Result) (bool, error) {
	switch link {
	case classify.Answer:
		_, created, err := im.engine.Answer(ctx, from, to, rec.ExternalID)
		if err == nil {
			res.Answers++
		}
		return created, err

	case classify.SetMember:
		_, created, err := im.engine.SetMember(ctx, to, from, rec.ExternalID)
		if err == nil {
			res.SetMembers++
		}
		return created, err

	default:
		// The own-dictionary term carries the target's relational id as code.
		created, err := crossReference(ctx, im.engine, from, im.classifier.OwnSourceName(), strconv.FormatInt(to, 10), nil, rec.MapType, rec.ExternalID, rec.Retired)
		if err == nil {
			res.InternalMappings++
		}
		return created, err
	}
}

func (im *Importer) external(ctx context.Context, from int64, rec *schema.MappingRecord) (bool, error) {
	sourceName, err := im.localSource(rec)
	if err != nil {
		return false, err
	}

	var termName *string
	if rec.ToConceptName != "" {
		name := rec.ToConceptName
		termName = &name
	}
	return crossReference(ctx, im.engine, from, sourceName, rec.ToConceptCode, termName, rec.MapType, rec.ExternalID, rec.Retired)
}

// localSource returns the reference source name of an external mapping's
// target source. Export resolves names through the same directory.
func (im *Importer) localSource(rec *schema.MappingRecord) (string, error) {
	ref, err := schema.ParseSourceURL(rec.ToSourceURL)
	if err != nil {
		return "", &omrs.MalformedRecordError{Kind: "mapping", Field: "to_source_url", Reason: err.Error()}
	}
	if im.classifier.Directory != nil {
		if local, ok := im.classifier.Directory.Reverse(ref.OrgID, ref.SourceID); ok {
			return local, nil
		}
	}
	return "", &omrs.UnrecognizedSourceError{
		Source: ref.OrgID + "/" + ref.SourceID,
		Detail: "no entry in the source directory",
	}
}

// crossReference finds or creates source, term, map type and the reference
// map tying them to concept.
func crossReference(ctx context.Context, engine *upsert.Engine, concept int64, sourceName, code string, termName *string, mapType, id string, retired bool) (bool, error) {
	src, _, err := engine.ReferenceSource(ctx, sourceName)
	if err != nil {
		return false, err
	}
	term, _, err := engine.ReferenceTerm(ctx, src.ID, code, termName)
	if err != nil {
		return false, err
	}
	mt, _, err := engine.MapType(ctx, mapType)
	if err != nil {
		return false, err
	}
	_, created, err := engine.ReferenceMap(ctx, concept, term.ID, mt.ID, id, retired)
	return created, err
}

func resolveURL(ids *resolver.Resolver, u string) (int64, error) {
	ref, err := schema.ParseConceptURL(u)
	if err != nil {
		return 0, &omrs.MalformedRecordError{Kind: "mapping", Reason: err.Error()}
	}
	return ids.Resolve(ref.Code)
}
