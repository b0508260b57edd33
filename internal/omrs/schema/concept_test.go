package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

func TestParseConcept(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantErr   bool
		wantField string
	}{
		{
			name: "valid concept",
			line: `{"id":100,"concept_class":"Diagnosis","datatype":"N/A","external_id":"u-100","retired":false,` +
				`"names":[{"name":"Fever","name_type":"FULLY_SPECIFIED","locale":"en","locale_preferred":true,"external_id":"n-1"}],` +
				`"descriptions":[],"extras":{}}`,
		},
		{
			name: "minimal concept",
			line: `{"id":1,"concept_class":"Misc","datatype":"Text","external_id":"u-1","names":[]}`,
		},
		{
			name: "names without external_id",
			line: `{"id":1,"concept_class":"Misc","datatype":"Text","names":[{"name":"X","locale":"en"}]}`,
		},
		{
			name:      "no external_id and no names",
			line:      `{"id":5,"concept_class":"Misc","datatype":"N/A","names":[]}`,
			wantErr:   true,
			wantField: "names",
		},
		{
			name:      "missing concept_class",
			line:      `{"id":1,"datatype":"Text","names":[]}`,
			wantErr:   true,
			wantField: "concept_class",
		},
		{
			name:      "missing datatype",
			line:      `{"id":1,"concept_class":"Misc","names":[]}`,
			wantErr:   true,
			wantField: "datatype",
		},
		{
			name:      "missing id",
			line:      `{"concept_class":"Misc","datatype":"Text","names":[]}`,
			wantErr:   true,
			wantField: "id",
		},
		{
			name:      "string id",
			line:      `{"id":"1","concept_class":"Misc","datatype":"Text","names":[]}`,
			wantErr:   true,
			wantField: "id",
		},
		{
			name:      "missing names",
			line:      `{"id":1,"concept_class":"Misc","datatype":"Text"}`,
			wantErr:   true,
			wantField: "names",
		},
		{
			name:      "name without locale",
			line:      `{"id":1,"concept_class":"Misc","datatype":"Text","names":[{"name":"X"}]}`,
			wantErr:   true,
			wantField: "names[0].locale",
		},
		{
			name:      "description without text",
			line:      `{"id":1,"concept_class":"Misc","datatype":"Text","names":[],"descriptions":[{"locale":"en"}]}`,
			wantErr:   true,
			wantField: "descriptions[0].description",
		},
		{
			name:    "not json",
			line:    `{"id":1,`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseConcept([]byte(tt.line), 7)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got record %+v", rec)
				}
				if !errors.Is(err, omrs.ErrMalformedRecord) {
					t.Fatalf("expected ErrMalformedRecord, got %v", err)
				}
				var me *omrs.MalformedRecordError
				if !errors.As(err, &me) {
					t.Fatalf("expected *MalformedRecordError, got %T", err)
				}
				if me.Line != 7 {
					t.Errorf("Line = %d, want 7", me.Line)
				}
				if tt.wantField != "" && me.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", me.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseConcept_Defaults(t *testing.T) {
	rec, err := ParseConcept([]byte(`{"id":42,"concept_class":"Test","datatype":"Coded","names":[{"name":"HIV test","locale":"en"}]}`), 1)
	if err != nil {
		t.Fatalf("ParseConcept failed: %v", err)
	}
	if rec.Retired {
		t.Error("Retired should default to false")
	}
	if rec.Names[0].LocalePreferred {
		t.Error("LocalePreferred should default to false")
	}
	if rec.Descriptions == nil {
		t.Error("Descriptions should be an empty slice, not nil")
	}
	if rec.Code() != "42" {
		t.Errorf("Code() = %q, want 42", rec.Code())
	}
	if rec.Extras.HasNumeric() {
		t.Error("absent extras should carry no numeric metadata")
	}
}

func TestExtras_SparseEncoding(t *testing.T) {
	hi := 12.5
	units := "mg"
	rec := ConceptRecord{
		ID:           5,
		ConceptClass: "Test",
		Datatype:     omrs.DatatypeNumeric,
		Names:        []NameRecord{},
		Descriptions: []DescriptionRecord{},
		Extras:       Extras{HiNormal: &hi, Units: &units},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Extras map[string]any `json:"extras"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(decoded.Extras) != 2 {
		t.Fatalf("extras = %v, want exactly hi_normal and units", decoded.Extras)
	}
	if decoded.Extras["hi_normal"] != 12.5 {
		t.Errorf("hi_normal = %v, want 12.5", decoded.Extras["hi_normal"])
	}
	if _, ok := decoded.Extras["low_normal"]; ok {
		t.Error("low_normal should be absent, not zero")
	}
}

func TestExtras_DisplayPrecisionIsInteger(t *testing.T) {
	_, err := ParseConcept([]byte(`{"id":1,"concept_class":"Test","datatype":"Numeric","names":[],"extras":{"display_precision":1.5}}`), 2)
	if !errors.Is(err, omrs.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord for fractional display_precision, got %v", err)
	}
}
