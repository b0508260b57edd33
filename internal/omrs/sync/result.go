package sync

// Result counts what a run did. Every phase returns its own Result and the
// caller aggregates them with Add.
type Result struct {
	ConceptsProcessed   int
	ConceptsCreated     int
	NamesCreated        int
	DescriptionsCreated int
	NumericsCreated     int
	RetiredConcepts     int

	MappingsProcessed   int
	MappingsCreated     int
	InternalMappings    int
	ExternalMappings    int
	IgnoredSelfMappings int
	Questions           int
	Answers             int
	ConceptSets         int
	SetMembers          int
	HookMappings        int
}

// Add accumulates o into r.
func (r *Result) Add(o *Result) {
	if o == nil {
		return
	}
	r.ConceptsProcessed += o.ConceptsProcessed
	r.ConceptsCreated += o.ConceptsCreated
	r.NamesCreated += o.NamesCreated
	r.DescriptionsCreated += o.DescriptionsCreated
	r.NumericsCreated += o.NumericsCreated
	r.RetiredConcepts += o.RetiredConcepts
	r.MappingsProcessed += o.MappingsProcessed
	r.MappingsCreated += o.MappingsCreated
	r.InternalMappings += o.InternalMappings
	r.ExternalMappings += o.ExternalMappings
	r.IgnoredSelfMappings += o.IgnoredSelfMappings
	r.Questions += o.Questions
	r.Answers += o.Answers
	r.ConceptSets += o.ConceptSets
	r.SetMembers += o.SetMembers
	r.HookMappings += o.HookMappings
}

// Created returns the number of rows created by the run.
func (r *Result) Created() int {
	return r.ConceptsCreated + r.NamesCreated + r.DescriptionsCreated + r.NumericsCreated + r.MappingsCreated + r.HookMappings
}

// Fields returns the counters as alternating keys and values for
// structured logging.
func (r *Result) Fields() []interface{} {
	return []interface{}{
		"concepts_processed", r.ConceptsProcessed,
		"concepts_created", r.ConceptsCreated,
		"names_created", r.NamesCreated,
		"descriptions_created", r.DescriptionsCreated,
		"numerics_created", r.NumericsCreated,
		"retired_concepts", r.RetiredConcepts,
		"mappings_processed", r.MappingsProcessed,
		"mappings_created", r.MappingsCreated,
		"internal_mappings", r.InternalMappings,
		"external_mappings", r.ExternalMappings,
		"ignored_self_mappings", r.IgnoredSelfMappings,
		"questions", r.Questions,
		"answers", r.Answers,
		"concept_sets", r.ConceptSets,
		"set_members", r.SetMembers,
		"hook_mappings", r.HookMappings,
	}
}
