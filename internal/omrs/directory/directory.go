// Package directory maps local reference source names to registry
// organizations and sources.
package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

// Directory resolves reference sources in both directions.
type Directory interface {
	// Resolve returns the registry org and source id of a local source name.
	Resolve(localName string) (orgID, sourceID string, ok bool)
	// Reverse returns the local source name of a registry source.
	Reverse(orgID, sourceID string) (localName string, ok bool)
}

// Entry is one directory row.
type Entry struct {
	Local    string `toml:"local" yaml:"local"`
	OrgID    string `toml:"org" yaml:"org"`
	SourceID string `toml:"source" yaml:"source"`
}

type file struct {
	Sources []Entry `toml:"sources" yaml:"sources"`
}

// Static is an in-memory Directory.
type Static struct {
	byLocal  map[string]Entry
	byRemote map[string]Entry
}

// NewStatic builds a directory from entries. Later entries win over earlier
// ones with the same local name.
func NewStatic(entries ...Entry) *Static {
	s := &Static{
		byLocal:  make(map[string]Entry, len(entries)),
		byRemote: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if old, ok := s.byLocal[e.Local]; ok {
			delete(s.byRemote, remoteKey(old.OrgID, old.SourceID))
		}
		s.byLocal[e.Local] = e
		s.byRemote[remoteKey(e.OrgID, e.SourceID)] = e
	}
	return s
}

func remoteKey(orgID, sourceID string) string {
	return orgID + "/" + sourceID
}

// Resolve implements Directory.
func (s *Static) Resolve(localName string) (string, string, bool) {
	e, ok := s.byLocal[localName]
	if !ok {
		return "", "", false
	}
	return e.OrgID, e.SourceID, true
}

// Reverse implements Directory.
func (s *Static) Reverse(orgID, sourceID string) (string, bool) {
	e, ok := s.byRemote[remoteKey(orgID, sourceID)]
	if !ok {
		return "", false
	}
	return e.Local, true
}

// Entries returns the directory rows sorted by local name.
func (s *Static) Entries() []Entry {
	out := make([]Entry, 0, len(s.byLocal))
	for _, e := range s.byLocal {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Local < out[j].Local })
	return out
}

// builtin lists the well-known sources used by OpenMRS dictionaries.
var builtin = []Entry{
	{Local: "3BT", OrgID: "3BT", SourceID: "3BT"},
	{Local: "AMPATH", OrgID: "AMPATH", SourceID: "AMPATH"},
	{Local: "CIEL", OrgID: "CIEL", SourceID: "CIEL"},
	{Local: "Emory", OrgID: "Emory", SourceID: "Emory"},
	{Local: "HL-7 CVX", OrgID: "HL7", SourceID: "HL-7-CVX"},
	{Local: "ICD-10-WHO", OrgID: "WHO", SourceID: "ICD-10-WHO"},
	{Local: "ICD-10-WHO NP", OrgID: "WHO", SourceID: "ICD-10-WHO-NP"},
	{Local: "ICD-10-WHO NP2", OrgID: "WHO", SourceID: "ICD-10-WHO-NP2"},
	{Local: "ICD-10-WHO 2nd", OrgID: "WHO", SourceID: "ICD-10-WHO-2nd"},
	{Local: "ICPC2", OrgID: "WONCA", SourceID: "ICPC2"},
	{Local: "IMO ProblemIT", OrgID: "IMO", SourceID: "IMO-ProblemIT"},
	{Local: "IMO ProcedureIT", OrgID: "IMO", SourceID: "IMO-ProcedureIT"},
	{Local: "LOINC", OrgID: "Regenstrief", SourceID: "LOINC"},
	{Local: "MDRTB", OrgID: "PIH", SourceID: "MDRTB"},
	{Local: "NDF-RT NUI", OrgID: "VA", SourceID: "NDF-RT-NUI"},
	{Local: "PIH", OrgID: "PIH", SourceID: "PIH"},
	{Local: "PIH Malawi", OrgID: "PIH", SourceID: "PIH-Malawi"},
	{Local: "RxNORM", OrgID: "NLM", SourceID: "RxNORM"},
	{Local: "RxNORM Comb", OrgID: "NLM", SourceID: "RxNORM-Comb"},
	{Local: "SNOMED CT", OrgID: "IHTSDO", SourceID: "SNOMED-CT"},
	{Local: "SNOMED MVP", OrgID: "IHTSDO", SourceID: "SNOMED-MVP"},
	{Local: "SNOMED NP", OrgID: "IHTSDO", SourceID: "SNOMED-NP"},
	{Local: "org.openmrs.module.emrapi", OrgID: "OpenMRS", SourceID: "org.openmrs.module.emrapi"},
}

// Default returns the built-in directory.
func Default() *Static {
	return NewStatic(builtin...)
}

// Load reads a directory file (TOML or YAML, by extension) and layers its
// entries over the built-in ones. An empty path returns Default().
func Load(path string) (*Static, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("%w: failed to parse source directory %s: %v", omrs.ErrInvalidConfig, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: failed to parse source directory %s: %v", omrs.ErrInvalidConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: source directory %s must be .toml, .yaml or .yml", omrs.ErrInvalidConfig, path)
	}

	for i, e := range f.Sources {
		if strings.TrimSpace(e.Local) == "" || strings.TrimSpace(e.OrgID) == "" || strings.TrimSpace(e.SourceID) == "" {
			return nil, fmt.Errorf("%w: source directory %s entry %d needs local, org and source", omrs.ErrInvalidConfig, path, i+1)
		}
	}

	return NewStatic(append(append([]Entry{}, builtin...), f.Sources...)...), nil
}
