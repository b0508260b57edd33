package schema

import (
	"errors"
	"testing"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

func TestParseMapping(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantInternal bool
		wantExternal bool
		wantSentinel error
	}{
		{
			name:         "internal",
			line:         `{"map_type":"Q-AND-A","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/200/","to_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/201/","external_id":"m-1","retired":false}`,
			wantInternal: true,
		},
		{
			name:         "external",
			line:         `{"map_type":"SAME-AS","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/","to_source_url":"/orgs/CIEL/sources/CIEL/","to_concept_code":"140238","to_concept_name":"Fever","external_id":"m-2"}`,
			wantExternal: true,
		},
		{
			name:         "neither target",
			line:         `{"map_type":"SAME-AS","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/"}`,
			wantSentinel: omrs.ErrUnclassifiableMapping,
		},
		{
			name:         "both targets",
			line:         `{"map_type":"SAME-AS","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/","to_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/1/","to_source_url":"/orgs/CIEL/sources/CIEL/","to_concept_code":"1"}`,
			wantSentinel: omrs.ErrUnclassifiableMapping,
		},
		{
			name:         "external without code",
			line:         `{"map_type":"SAME-AS","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/","to_source_url":"/orgs/CIEL/sources/CIEL/"}`,
			wantSentinel: omrs.ErrMalformedRecord,
		},
		{
			name:         "missing map_type",
			line:         `{"from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/","to_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/1/"}`,
			wantSentinel: omrs.ErrMalformedRecord,
		},
		{
			name:         "bad from url",
			line:         `{"map_type":"SAME-AS","from_concept_url":"100","to_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/1/"}`,
			wantSentinel: omrs.ErrMalformedRecord,
		},
		{
			name:         "retired wrong type",
			line:         `{"map_type":"SAME-AS","from_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/100/","to_concept_url":"/orgs/MyOrg/sources/MySrc/concepts/1/","retired":"no"}`,
			wantSentinel: omrs.ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseMapping([]byte(tt.line), 3)
			if tt.wantSentinel != nil {
				if !errors.Is(err, tt.wantSentinel) {
					t.Fatalf("expected %v, got %v", tt.wantSentinel, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.IsInternal() != tt.wantInternal {
				t.Errorf("IsInternal() = %v, want %v", rec.IsInternal(), tt.wantInternal)
			}
			if rec.IsExternal() != tt.wantExternal {
				t.Errorf("IsExternal() = %v, want %v", rec.IsExternal(), tt.wantExternal)
			}
		})
	}
}

func TestConceptURL_RoundTrip(t *testing.T) {
	u := ConceptURL("MyOrg", "MySrc", "5089")
	if u != "/orgs/MyOrg/sources/MySrc/concepts/5089/" {
		t.Fatalf("ConceptURL() = %q", u)
	}

	ref, err := ParseConceptURL(u)
	if err != nil {
		t.Fatalf("ParseConceptURL failed: %v", err)
	}
	if ref != (ConceptRef{OrgID: "MyOrg", SourceID: "MySrc", Code: "5089"}) {
		t.Errorf("ParseConceptURL() = %+v", ref)
	}
}

func TestParseSourceURL(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceRef
		wantErr bool
	}{
		{in: "/orgs/CIEL/sources/CIEL/", want: SourceRef{OrgID: "CIEL", SourceID: "CIEL"}},
		{in: "/orgs/IHTSDO/sources/SNOMED-CT", want: SourceRef{OrgID: "IHTSDO", SourceID: "SNOMED-CT"}},
		{in: "https://api.openconceptlab.org/orgs/WHO/sources/ICD-10-WHO/", want: SourceRef{OrgID: "WHO", SourceID: "ICD-10-WHO"}},
		{in: "/orgs/CIEL/", wantErr: true},
		{in: "/orgs/CIEL/sources/CIEL/concepts/1/", wantErr: true},
		{in: "CIEL", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSourceURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSourceURL() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
