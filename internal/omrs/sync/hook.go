package sync

import (
	"context"
	"strconv"

	"github.com/ashokraman/ocl-omrs/internal/omrs/classify"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
	"github.com/ashokraman/ocl-omrs/internal/omrs/upsert"
)

// InternalMapping describes an internal mapping that has just been imported.
type InternalMapping struct {
	Record *schema.MappingRecord
	Link   classify.Link
	FromID int64
	ToID   int64
	// OwnSource is the reference source name of the dictionary being
	// imported into.
	OwnSource string
}

// MappingHook runs after each internal mapping is imported and may create
// extra rows. It returns how many rows it created.
type MappingHook interface {
	AfterInternal(ctx context.Context, engine *upsert.Engine, m InternalMapping) (int, error)
}

// CrossReferenceHook adds a secondary cross-reference from the mapping's
// source concept to the target's interchange code in Source, typed MapType.
// Dictionaries derived from CIEL use Source "CIEL" and MapType "SAME-AS".
// When Source is the dictionary's own source the term code is the target's
// relational id, as for every other term in that source.
type CrossReferenceHook struct {
	Source  string
	MapType string
}

// AfterInternal implements MappingHook.
func (h CrossReferenceHook) AfterInternal(ctx context.Context, engine *upsert.Engine, m InternalMapping) (int, error) {
	code := strconv.FormatInt(m.ToID, 10)
	if h.Source != m.OwnSource {
		to, err := schema.ParseConceptURL(m.Record.ToConceptURL)
		if err != nil {
			return 0, err
		}
		code = to.Code
	}

	// Empty id: the engine assigns a fresh one.
	created, err := crossReference(ctx, engine, m.FromID, h.Source, code, nil, h.MapType, "", m.Record.Retired)
	if err != nil || !created {
		return 0, err
	}
	return 1, nil
}
