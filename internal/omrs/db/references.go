package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
)

const sourceColumns = `concept_source_id, name, description, hl7_code, uuid, retired, creator, date_created`

func scanSource(row rowScanner) (*model.ConceptReferenceSource, error) {
	var s model.ConceptReferenceSource
	var hl7 sql.NullString
	var created string
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &hl7, &s.UUID, &s.Retired, &s.Creator, &created); err != nil {
		return nil, err
	}
	s.HL7Code = stringPtr(hl7)
	s.DateCreated = parseTime(created)
	return &s, nil
}

// FindReferenceSource returns the reference source named name.
func (db *DB) FindReferenceSource(ctx context.Context, name string) (*model.ConceptReferenceSource, error) {
	s, err := scanSource(db.queryRow(ctx, `SELECT `+sourceColumns+` FROM concept_reference_source WHERE name = ?`, name))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reference source %q: %w", name, err)
	}
	return s, nil
}

// InsertReferenceSource creates a reference source and sets s.ID.
func (db *DB) InsertReferenceSource(ctx context.Context, s *model.ConceptReferenceSource) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_reference_source (name, description, hl7_code, uuid, retired, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, "concept_source_id",
		s.Name, s.Description, nullString(s.HL7Code), s.UUID, s.Retired, s.Creator, formatTime(s.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert reference source %q: %w", s.Name, err)
	}
	s.ID = id
	return nil
}

// ReferenceSources lists reference sources ordered by name. Retired sources
// are skipped unless includeRetired is set.
func (db *DB) ReferenceSources(ctx context.Context, includeRetired bool) ([]*model.ConceptReferenceSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM concept_reference_source`
	var args []any
	if !includeRetired {
		query += ` WHERE retired = ?`
		args = append(args, false)
	}
	query += ` ORDER BY name ASC`

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference sources: %w", err)
	}
	defer rows.Close()

	var sources []*model.ConceptReferenceSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference source: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference sources: %w", err)
	}
	return sources, nil
}

// FindReferenceTerm returns the term of sourceID with the given code.
func (db *DB) FindReferenceTerm(ctx context.Context, sourceID int64, code string) (*model.ConceptReferenceTerm, error) {
	var t model.ConceptReferenceTerm
	var name sql.NullString
	var created string
	err := db.queryRow(ctx, `
	SELECT concept_reference_term_id, concept_source_id, code, name, uuid, retired, creator, date_created
	FROM concept_reference_term WHERE concept_source_id = ? AND code = ?`, sourceID, code).
		Scan(&t.ID, &t.SourceID, &t.Code, &name, &t.UUID, &t.Retired, &t.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reference term %s in source %d: %w", code, sourceID, err)
	}
	t.Name = stringPtr(name)
	t.DateCreated = parseTime(created)
	return &t, nil
}

// InsertReferenceTerm creates a reference term and sets t.ID.
func (db *DB) InsertReferenceTerm(ctx context.Context, t *model.ConceptReferenceTerm) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_reference_term (concept_source_id, code, name, uuid, retired, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, "concept_reference_term_id",
		t.SourceID, t.Code, nullString(t.Name), t.UUID, t.Retired, t.Creator, formatTime(t.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert reference term %s: %w", t.Code, err)
	}
	t.ID = id
	return nil
}

// FindMapType returns the map type named name.
func (db *DB) FindMapType(ctx context.Context, name string) (*model.ConceptMapType, error) {
	var mt model.ConceptMapType
	var created string
	err := db.queryRow(ctx, `SELECT concept_map_type_id, name, uuid, creator, date_created FROM concept_map_type WHERE name = ?`, name).
		Scan(&mt.ID, &mt.Name, &mt.UUID, &mt.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find map type %q: %w", name, err)
	}
	mt.DateCreated = parseTime(created)
	return &mt, nil
}

// InsertMapType creates a map type and sets mt.ID.
func (db *DB) InsertMapType(ctx context.Context, mt *model.ConceptMapType) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_map_type (name, uuid, creator, date_created) VALUES (?, ?, ?, ?)`, "concept_map_type_id",
		mt.Name, mt.UUID, mt.Creator, formatTime(mt.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert map type %q: %w", mt.Name, err)
	}
	mt.ID = id
	return nil
}

// FindReferenceMap returns the map linking conceptID to termID with mapTypeID.
func (db *DB) FindReferenceMap(ctx context.Context, conceptID, termID, mapTypeID int64) (*model.ConceptReferenceMap, error) {
	var m model.ConceptReferenceMap
	var created string
	err := db.queryRow(ctx, `
	SELECT concept_map_id, concept_id, concept_reference_term_id, concept_map_type_id, uuid, retired, creator, date_created
	FROM concept_reference_map
	WHERE concept_id = ? AND concept_reference_term_id = ? AND concept_map_type_id = ?`,
		conceptID, termID, mapTypeID).
		Scan(&m.ID, &m.ConceptID, &m.TermID, &m.MapTypeID, &m.UUID, &m.Retired, &m.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reference map of concept %d: %w", conceptID, err)
	}
	m.DateCreated = parseTime(created)
	return &m, nil
}

// InsertReferenceMap creates a reference map and sets m.ID.
func (db *DB) InsertReferenceMap(ctx context.Context, m *model.ConceptReferenceMap) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_reference_map (concept_id, concept_reference_term_id, concept_map_type_id, uuid, retired, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, "concept_map_id",
		m.ConceptID, m.TermID, m.MapTypeID, m.UUID, m.Retired, m.Creator, formatTime(m.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert reference map of concept %d: %w", m.ConceptID, err)
	}
	m.ID = id
	return nil
}

// ReferenceEdges returns the reference maps of a concept joined with their
// term, source and map type, in creation order.
func (db *DB) ReferenceEdges(ctx context.Context, conceptID int64) ([]model.ReferenceEdge, error) {
	rows, err := db.query(ctx, `
	SELECT m.uuid, mt.name, s.name, t.code, t.name, t.uuid, m.retired
	FROM concept_reference_map m
	JOIN concept_reference_term t ON t.concept_reference_term_id = m.concept_reference_term_id
	JOIN concept_reference_source s ON s.concept_source_id = t.concept_source_id
	JOIN concept_map_type mt ON mt.concept_map_type_id = m.concept_map_type_id
	WHERE m.concept_id = ?
	ORDER BY m.concept_map_id ASC`, conceptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference maps of concept %d: %w", conceptID, err)
	}
	defer rows.Close()

	var edges []model.ReferenceEdge
	for rows.Next() {
		var e model.ReferenceEdge
		var termName sql.NullString
		if err := rows.Scan(&e.MapUUID, &e.MapType, &e.SourceName, &e.TermCode, &termName, &e.TermUUID, &e.Retired); err != nil {
			return nil, fmt.Errorf("failed to scan reference map: %w", err)
		}
		e.TermName = stringPtr(termName)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference maps: %w", err)
	}
	return edges, nil
}

// FindConceptAnswer returns the answer link between question and answer.
func (db *DB) FindConceptAnswer(ctx context.Context, question, answer int64) (*model.ConceptAnswer, error) {
	var a model.ConceptAnswer
	var created string
	err := db.queryRow(ctx, `
	SELECT concept_answer_id, concept_id, answer_concept, uuid, creator, date_created
	FROM concept_answer WHERE concept_id = ? AND answer_concept = ?`, question, answer).
		Scan(&a.ID, &a.ConceptID, &a.AnswerConcept, &a.UUID, &a.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find answer %d of concept %d: %w", answer, question, err)
	}
	a.DateCreated = parseTime(created)
	return &a, nil
}

// InsertConceptAnswer creates an answer link and sets a.ID.
func (db *DB) InsertConceptAnswer(ctx context.Context, a *model.ConceptAnswer) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_answer (concept_id, answer_concept, uuid, creator, date_created)
	VALUES (?, ?, ?, ?, ?)`, "concept_answer_id",
		a.ConceptID, a.AnswerConcept, a.UUID, a.Creator, formatTime(a.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert answer %d of concept %d: %w", a.AnswerConcept, a.ConceptID, err)
	}
	a.ID = id
	return nil
}

// ConceptAnswers returns the answers linked to a question concept.
func (db *DB) ConceptAnswers(ctx context.Context, question int64) ([]model.Link, error) {
	return db.links(ctx, `
	SELECT uuid, answer_concept FROM concept_answer
	WHERE concept_id = ? ORDER BY concept_answer_id ASC`, question)
}

// FindConceptSet returns the membership of member in owner.
func (db *DB) FindConceptSet(ctx context.Context, member, owner int64) (*model.ConceptSet, error) {
	var s model.ConceptSet
	var created string
	err := db.queryRow(ctx, `
	SELECT concept_set_id, concept_id, concept_set, uuid, creator, date_created
	FROM concept_set WHERE concept_id = ? AND concept_set = ?`, member, owner).
		Scan(&s.ID, &s.ConceptID, &s.ConceptSetID, &s.UUID, &s.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find member %d of set %d: %w", member, owner, err)
	}
	s.DateCreated = parseTime(created)
	return &s, nil
}

// InsertConceptSet creates a set membership and sets s.ID.
func (db *DB) InsertConceptSet(ctx context.Context, s *model.ConceptSet) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_set (concept_id, concept_set, uuid, creator, date_created)
	VALUES (?, ?, ?, ?, ?)`, "concept_set_id",
		s.ConceptID, s.ConceptSetID, s.UUID, s.Creator, formatTime(s.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert member %d of set %d: %w", s.ConceptID, s.ConceptSetID, err)
	}
	s.ID = id
	return nil
}

// ConceptSetMembers returns the members of a set concept.
func (db *DB) ConceptSetMembers(ctx context.Context, owner int64) ([]model.Link, error) {
	return db.links(ctx, `
	SELECT uuid, concept_id FROM concept_set
	WHERE concept_set = ? ORDER BY concept_set_id ASC`, owner)
}

func (db *DB) links(ctx context.Context, query string, id int64) ([]model.Link, error) {
	rows, err := db.query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query links of concept %d: %w", id, err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.UUID, &l.Target); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}
