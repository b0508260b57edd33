package directory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
)

func TestDefault_ResolveAndReverse(t *testing.T) {
	d := Default()

	org, src, ok := d.Resolve("SNOMED CT")
	if !ok || org != "IHTSDO" || src != "SNOMED-CT" {
		t.Fatalf("Resolve(SNOMED CT) = %q, %q, %v", org, src, ok)
	}

	local, ok := d.Reverse("IHTSDO", "SNOMED-CT")
	if !ok || local != "SNOMED CT" {
		t.Errorf("Reverse(IHTSDO, SNOMED-CT) = %q, %v", local, ok)
	}

	if _, _, ok := d.Resolve("Unknown Source"); ok {
		t.Error("Resolve should miss unknown sources")
	}
}

func TestLoad_TOMLOverridesBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	content := `
[[sources]]
local = "CIEL"
org = "MyMirror"
source = "CIEL-2024"

[[sources]]
local = "Local Lab"
org = "MyOrg"
source = "LAB"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write directory file: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	org, src, ok := d.Resolve("CIEL")
	if !ok || org != "MyMirror" || src != "CIEL-2024" {
		t.Errorf("Resolve(CIEL) = %q, %q, %v", org, src, ok)
	}
	if _, ok := d.Reverse("CIEL", "CIEL"); ok {
		t.Error("overridden entry should no longer reverse-resolve")
	}
	if local, ok := d.Reverse("MyOrg", "LAB"); !ok || local != "Local Lab" {
		t.Errorf("Reverse(MyOrg, LAB) = %q, %v", local, ok)
	}
	if _, _, ok := d.Resolve("LOINC"); !ok {
		t.Error("built-in entries should survive a file load")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := "sources:\n  - local: Local Lab\n    org: MyOrg\n    source: LAB\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write directory file: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if org, src, ok := d.Resolve("Local Lab"); !ok || org != "MyOrg" || src != "LAB" {
		t.Errorf("Resolve(Local Lab) = %q, %q, %v", org, src, ok)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"incomplete entry", "a.toml", "[[sources]]\nlocal = \"X\"\n"},
		{"bad toml", "b.toml", "[[sources]\n"},
		{"unknown extension", "c.json", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
			_, err := Load(path)
			if !errors.Is(err, omrs.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(d.Entries()) != len(builtin) {
		t.Errorf("len(Entries()) = %d, want %d", len(d.Entries()), len(builtin))
	}
}
