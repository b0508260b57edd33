// Package jsonl reads and writes interchange files: one JSON record per line.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ashokraman/ocl-omrs/internal/omrs/schema"
)

// maxLine bounds a single record. Concepts with many names and
// descriptions easily exceed bufio's 64KB default.
const maxLine = 16 * 1024 * 1024

// ReadConcepts reads a concept file.
func ReadConcepts(path string) ([]*schema.ConceptRecord, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open concept file: %w", err)
	}
	defer file.Close()

	concepts, err := DecodeConcepts(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return concepts, nil
}

// ReadMappings reads a mapping file.
func ReadMappings(path string) ([]*schema.MappingRecord, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer file.Close()

	mappings, err := DecodeMappings(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return mappings, nil
}

// DecodeConcepts parses concept lines from r. Blank lines are skipped; line
// numbers in errors are 1-based and count blank lines.
func DecodeConcepts(r io.Reader) ([]*schema.ConceptRecord, error) {
	var concepts []*schema.ConceptRecord
	err := eachLine(r, func(line []byte, n int) error {
		rec, err := schema.ParseConcept(line, n)
		if err != nil {
			return err
		}
		concepts = append(concepts, rec)
		return nil
	})
	return concepts, err
}

// DecodeMappings parses mapping lines from r.
func DecodeMappings(r io.Reader) ([]*schema.MappingRecord, error) {
	var mappings []*schema.MappingRecord
	err := eachLine(r, func(line []byte, n int) error {
		rec, err := schema.ParseMapping(line, n)
		if err != nil {
			return err
		}
		mappings = append(mappings, rec)
		return nil
	})
	return mappings, err
}

func eachLine(r io.Reader, fn func(line []byte, n int) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := fn(line, n); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan line %d: %w", n+1, err)
	}
	return nil
}

// EncodeConcepts writes one line per concept.
func EncodeConcepts(w io.Writer, concepts []*schema.ConceptRecord) error {
	enc := newEncoder(w)
	for _, c := range concepts {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode concept %d: %w", c.ID, err)
		}
	}
	return nil
}

// EncodeMappings writes one line per mapping.
func EncodeMappings(w io.Writer, mappings []*schema.MappingRecord) error {
	enc := newEncoder(w)
	for _, m := range mappings {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode mapping from %s: %w", m.FromConceptURL, err)
		}
	}
	return nil
}

// EncodeRetired writes one concept id per line.
func EncodeRetired(w io.Writer, ids []int64) error {
	for _, id := range ids {
		if _, err := io.WriteString(w, strconv.FormatInt(id, 10)+"\n"); err != nil {
			return fmt.Errorf("failed to write retired id %d: %w", id, err)
		}
	}
	return nil
}

// WriteConcepts replaces path with the encoded concepts.
func WriteConcepts(path string, concepts []*schema.ConceptRecord) error {
	return writeAtomic(path, func(w io.Writer) error { return EncodeConcepts(w, concepts) })
}

// WriteMappings replaces path with the encoded mappings.
func WriteMappings(path string, mappings []*schema.MappingRecord) error {
	return writeAtomic(path, func(w io.Writer) error { return EncodeMappings(w, mappings) })
}

// WriteRetired replaces path with the retired concept ids.
func WriteRetired(path string, ids []int64) error {
	return writeAtomic(path, func(w io.Writer) error { return EncodeRetired(w, ids) })
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// writeAtomic writes through a temp file in the target directory and
// renames it over path, so readers never see a half-written file.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	buf := bufio.NewWriter(tmp)
	if err := write(buf); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
