package classify

import (
	"errors"
	"testing"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
)

func newClassifier() *Classifier {
	return &Classifier{
		OrgID:     "MyOrg",
		SourceID:  "MySrc",
		Directory: directory.Default(),
	}
}

func strPtr(s string) *string { return &s }

func TestEdge(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name     string
		edge     model.ReferenceEdge
		wantKind Kind
		wantTo   string
		wantSrc  string
		wantName string
	}{
		{
			name:     "self mapping",
			edge:     model.ReferenceEdge{SourceName: "MyOrg", TermCode: "100", MapType: "SAME-AS", MapUUID: "m-0"},
			wantKind: Self,
		},
		{
			name:     "internal cross-reference",
			edge:     model.ReferenceEdge{SourceName: "MyOrg", TermCode: "201", MapType: "NARROWER-THAN", MapUUID: "m-1"},
			wantKind: Internal,
			wantTo:   "/orgs/MyOrg/sources/MySrc/concepts/201/",
		},
		{
			name:     "external",
			edge:     model.ReferenceEdge{SourceName: "SNOMED CT", TermCode: "386661006", TermName: strPtr("Fever"), MapType: "SAME-AS", MapUUID: "m-2"},
			wantKind: External,
			wantSrc:  "/orgs/IHTSDO/sources/SNOMED-CT/",
			wantName: "Fever",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Edge(100, tt.edge)
			if err != nil {
				t.Fatalf("Edge() failed: %v", err)
			}
			if d.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", d.Kind, tt.wantKind)
			}
			if d.Kind == Self {
				if d.Record != nil {
					t.Error("self-mapping should produce no record")
				}
				return
			}
			rec := d.Record
			if rec.FromConceptURL != "/orgs/MyOrg/sources/MySrc/concepts/100/" {
				t.Errorf("FromConceptURL = %q", rec.FromConceptURL)
			}
			if rec.ToConceptURL != tt.wantTo {
				t.Errorf("ToConceptURL = %q, want %q", rec.ToConceptURL, tt.wantTo)
			}
			if rec.ToSourceURL != tt.wantSrc {
				t.Errorf("ToSourceURL = %q, want %q", rec.ToSourceURL, tt.wantSrc)
			}
			if rec.ToConceptName != tt.wantName {
				t.Errorf("ToConceptName = %q, want %q", rec.ToConceptName, tt.wantName)
			}
			if rec.ExternalID != tt.edge.MapUUID {
				t.Errorf("ExternalID = %q, want %q", rec.ExternalID, tt.edge.MapUUID)
			}
			if rec.IsInternal() == rec.IsExternal() {
				t.Error("record must be exactly one of internal or external")
			}
		})
	}
}

func TestEdge_UnknownSource(t *testing.T) {
	c := newClassifier()

	_, err := c.Edge(100, model.ReferenceEdge{SourceName: "Mystery Codes", TermCode: "X1", MapType: "SAME-AS"})
	if !errors.Is(err, omrs.ErrUnrecognizedSource) {
		t.Fatalf("expected ErrUnrecognizedSource, got %v", err)
	}
}

func TestEdge_OwnSourceOverride(t *testing.T) {
	c := newClassifier()
	c.OwnSource = "Local Dictionary"

	d, err := c.Edge(5, model.ReferenceEdge{SourceName: "Local Dictionary", TermCode: "6", MapType: "SAME-AS"})
	if err != nil {
		t.Fatalf("Edge() failed: %v", err)
	}
	if d.Kind != Internal {
		t.Errorf("Kind = %v, want internal", d.Kind)
	}
}

func TestAnswerAndSetMember(t *testing.T) {
	c := newClassifier()

	a := c.Answer(200, model.Link{UUID: "ans-1", Target: 201})
	if a.Kind != Internal || a.Link != Answer {
		t.Errorf("Answer() = %v/%v", a.Kind, a.Link)
	}
	if a.Record.MapType != omrs.MapTypeQAndA || a.Record.ToConceptURL != "/orgs/MyOrg/sources/MySrc/concepts/201/" {
		t.Errorf("Answer() record = %+v", a.Record)
	}

	s := c.SetMember(300, model.Link{UUID: "set-1", Target: 301})
	if s.Link != SetMember || s.Record.MapType != omrs.MapTypeConceptSet {
		t.Errorf("SetMember() = %+v", s.Record)
	}
	if s.Record.FromConceptURL != "/orgs/MyOrg/sources/MySrc/concepts/300/" {
		t.Errorf("SetMember() from = %q", s.Record.FromConceptURL)
	}
}

func TestRecord(t *testing.T) {
	c := newClassifier()
	from := schema.ConceptURL("MyOrg", "MySrc", "200")

	tests := []struct {
		name     string
		rec      schema.MappingRecord
		wantKind Kind
		wantLink Link
		wantErr  error
	}{
		{"answer", schema.MappingRecord{MapType: "Q-AND-A", FromConceptURL: from, ToConceptURL: schema.ConceptURL("MyOrg", "MySrc", "201")}, Internal, Answer, nil},
		{"set member", schema.MappingRecord{MapType: "CONCEPT-SET", FromConceptURL: from, ToConceptURL: schema.ConceptURL("MyOrg", "MySrc", "202")}, Internal, SetMember, nil},
		{"cross-reference", schema.MappingRecord{MapType: "BROADER-THAN", FromConceptURL: from, ToConceptURL: schema.ConceptURL("MyOrg", "MySrc", "203")}, Internal, CrossReference, nil},
		{"self", schema.MappingRecord{MapType: "SAME-AS", FromConceptURL: from, ToConceptURL: from}, Self, CrossReference, nil},
		{"external", schema.MappingRecord{MapType: "SAME-AS", FromConceptURL: from, ToSourceURL: "/orgs/CIEL/sources/CIEL/", ToConceptCode: "1"}, External, CrossReference, nil},
		{"neither", schema.MappingRecord{MapType: "SAME-AS", FromConceptURL: from}, 0, 0, omrs.ErrUnclassifiableMapping},
		{"both", schema.MappingRecord{MapType: "SAME-AS", FromConceptURL: from, ToConceptURL: from, ToSourceURL: "/orgs/CIEL/sources/CIEL/"}, 0, 0, omrs.ErrUnclassifiableMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Record(&tt.rec)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Record() failed: %v", err)
			}
			if d.Kind != tt.wantKind || d.Link != tt.wantLink {
				t.Errorf("Record() = %v/%v, want %v/%v", d.Kind, d.Link, tt.wantKind, tt.wantLink)
			}
		})
	}
}
