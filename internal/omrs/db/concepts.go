package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
)

const conceptColumns = `concept_id, uuid, class_id, datatype_id, is_set, retired, creator, date_created`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcept(row rowScanner) (*model.Concept, error) {
	var c model.Concept
	var created string
	if err := row.Scan(&c.ID, &c.UUID, &c.ClassID, &c.DatatypeID, &c.IsSet, &c.Retired, &c.Creator, &created); err != nil {
		return nil, err
	}
	c.DateCreated = parseTime(created)
	return &c, nil
}

// GetConcept returns the concept with the given relational id.
func (db *DB) GetConcept(ctx context.Context, id int64) (*model.Concept, error) {
	c, err := scanConcept(db.queryRow(ctx, `SELECT `+conceptColumns+` FROM concept WHERE concept_id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get concept %d: %w", id, err)
	}
	return c, nil
}

// FindConceptByUUID returns the concept carrying uuid.
func (db *DB) FindConceptByUUID(ctx context.Context, uuid string) (*model.Concept, error) {
	c, err := scanConcept(db.queryRow(ctx, `SELECT `+conceptColumns+` FROM concept WHERE uuid = ?`, uuid))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find concept by uuid %s: %w", uuid, err)
	}
	return c, nil
}

// FindConceptByName returns the lowest-id concept owning a non-voided name
// with the same text, locale and preference flag.
func (db *DB) FindConceptByName(ctx context.Context, name, locale string, preferred bool) (*model.Concept, error) {
	query := `
	SELECT c.concept_id, c.uuid, c.class_id, c.datatype_id, c.is_set, c.retired, c.creator, c.date_created
	FROM concept c
	JOIN concept_name n ON n.concept_id = c.concept_id
	WHERE n.name = ? AND n.locale = ? AND n.locale_preferred = ? AND n.voided = ?
	ORDER BY c.concept_id ASC
	LIMIT 1
	`
	c, err := scanConcept(db.queryRow(ctx, query, name, locale, preferred, false))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find concept by name %q: %w", name, err)
	}
	return c, nil
}

// InsertConcept creates a concept row and sets c.ID.
func (db *DB) InsertConcept(ctx context.Context, c *model.Concept) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept (uuid, class_id, datatype_id, is_set, retired, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, "concept_id",
		c.UUID, c.ClassID, c.DatatypeID, c.IsSet, c.Retired, c.Creator, formatTime(c.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert concept %s: %w", c.UUID, err)
	}
	c.ID = id
	return nil
}

// ListConcepts returns concepts ordered by id, narrowed by filter.
func (db *DB) ListConcepts(ctx context.Context, filter model.ConceptFilter) ([]*model.Concept, error) {
	query := `SELECT ` + conceptColumns + ` FROM concept WHERE 1 = 1`
	var args []any
	if filter.ConceptID != nil {
		query += ` AND concept_id = ?`
		args = append(args, *filter.ConceptID)
	}
	if filter.RetiredOnly {
		query += ` AND retired = ?`
		args = append(args, true)
	}
	query += ` ORDER BY concept_id ASC`

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	defer rows.Close()

	var concepts []*model.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concept: %w", err)
		}
		concepts = append(concepts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating concepts: %w", err)
	}
	return concepts, nil
}

// FindConceptClass returns the class named name.
func (db *DB) FindConceptClass(ctx context.Context, name string) (*model.ConceptClass, error) {
	var cc model.ConceptClass
	var created string
	err := db.queryRow(ctx, `SELECT concept_class_id, name, uuid, creator, date_created FROM concept_class WHERE name = ?`, name).
		Scan(&cc.ID, &cc.Name, &cc.UUID, &cc.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find concept class %q: %w", name, err)
	}
	cc.DateCreated = parseTime(created)
	return &cc, nil
}

// GetConceptClass returns the class with the given id.
func (db *DB) GetConceptClass(ctx context.Context, id int64) (*model.ConceptClass, error) {
	var cc model.ConceptClass
	var created string
	err := db.queryRow(ctx, `SELECT concept_class_id, name, uuid, creator, date_created FROM concept_class WHERE concept_class_id = ?`, id).
		Scan(&cc.ID, &cc.Name, &cc.UUID, &cc.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get concept class %d: %w", id, err)
	}
	cc.DateCreated = parseTime(created)
	return &cc, nil
}

// InsertConceptClass creates a class row and sets cc.ID.
func (db *DB) InsertConceptClass(ctx context.Context, cc *model.ConceptClass) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_class (name, uuid, creator, date_created) VALUES (?, ?, ?, ?)`, "concept_class_id",
		cc.Name, cc.UUID, cc.Creator, formatTime(cc.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert concept class %q: %w", cc.Name, err)
	}
	cc.ID = id
	return nil
}

// FindConceptDatatype returns the datatype named name.
func (db *DB) FindConceptDatatype(ctx context.Context, name string) (*model.ConceptDatatype, error) {
	var dt model.ConceptDatatype
	var created string
	err := db.queryRow(ctx, `SELECT concept_datatype_id, name, uuid, creator, date_created FROM concept_datatype WHERE name = ?`, name).
		Scan(&dt.ID, &dt.Name, &dt.UUID, &dt.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find concept datatype %q: %w", name, err)
	}
	dt.DateCreated = parseTime(created)
	return &dt, nil
}

// GetConceptDatatype returns the datatype with the given id.
func (db *DB) GetConceptDatatype(ctx context.Context, id int64) (*model.ConceptDatatype, error) {
	var dt model.ConceptDatatype
	var created string
	err := db.queryRow(ctx, `SELECT concept_datatype_id, name, uuid, creator, date_created FROM concept_datatype WHERE concept_datatype_id = ?`, id).
		Scan(&dt.ID, &dt.Name, &dt.UUID, &dt.Creator, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get concept datatype %d: %w", id, err)
	}
	dt.DateCreated = parseTime(created)
	return &dt, nil
}

// InsertConceptDatatype creates a datatype row and sets dt.ID.
func (db *DB) InsertConceptDatatype(ctx context.Context, dt *model.ConceptDatatype) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_datatype (name, uuid, creator, date_created) VALUES (?, ?, ?, ?)`, "concept_datatype_id",
		dt.Name, dt.UUID, dt.Creator, formatTime(dt.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert concept datatype %q: %w", dt.Name, err)
	}
	dt.ID = id
	return nil
}

const nameColumns = `concept_name_id, concept_id, name, locale, locale_preferred, concept_name_type, uuid, voided, creator, date_created`

func scanName(row rowScanner) (*model.ConceptName, error) {
	var n model.ConceptName
	var nameType sql.NullString
	var created string
	if err := row.Scan(&n.ID, &n.ConceptID, &n.Name, &n.Locale, &n.LocalePreferred, &nameType, &n.UUID, &n.Voided, &n.Creator, &created); err != nil {
		return nil, err
	}
	n.NameType = nameType.String
	n.DateCreated = parseTime(created)
	return &n, nil
}

// FindConceptName returns the name of conceptID matching the natural key.
func (db *DB) FindConceptName(ctx context.Context, conceptID int64, name, locale string, preferred bool) (*model.ConceptName, error) {
	n, err := scanName(db.queryRow(ctx, `
	SELECT `+nameColumns+` FROM concept_name
	WHERE concept_id = ? AND name = ? AND locale = ? AND locale_preferred = ?`,
		conceptID, name, locale, preferred))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find name %q of concept %d: %w", name, conceptID, err)
	}
	return n, nil
}

// InsertConceptName creates a name row and sets n.ID.
func (db *DB) InsertConceptName(ctx context.Context, n *model.ConceptName) error {
	var nameType sql.NullString
	if n.NameType != "" {
		nameType = sql.NullString{String: n.NameType, Valid: true}
	}
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_name (concept_id, name, locale, locale_preferred, concept_name_type, uuid, voided, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, "concept_name_id",
		n.ConceptID, n.Name, n.Locale, n.LocalePreferred, nameType, n.UUID, n.Voided, n.Creator, formatTime(n.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert name %q of concept %d: %w", n.Name, n.ConceptID, err)
	}
	n.ID = id
	return nil
}

// ConceptNames returns the non-voided names of a concept in creation order.
func (db *DB) ConceptNames(ctx context.Context, conceptID int64) ([]*model.ConceptName, error) {
	rows, err := db.query(ctx, `
	SELECT `+nameColumns+` FROM concept_name
	WHERE concept_id = ? AND voided = ?
	ORDER BY concept_name_id ASC`, conceptID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query names of concept %d: %w", conceptID, err)
	}
	defer rows.Close()

	var names []*model.ConceptName
	for rows.Next() {
		n, err := scanName(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concept name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating concept names: %w", err)
	}
	return names, nil
}

const descriptionColumns = `concept_description_id, concept_id, description, locale, uuid, creator, date_created`

func scanDescription(row rowScanner) (*model.ConceptDescription, error) {
	var d model.ConceptDescription
	var created string
	if err := row.Scan(&d.ID, &d.ConceptID, &d.Description, &d.Locale, &d.UUID, &d.Creator, &created); err != nil {
		return nil, err
	}
	d.DateCreated = parseTime(created)
	return &d, nil
}

// FindConceptDescription returns the description of conceptID with the given text.
func (db *DB) FindConceptDescription(ctx context.Context, conceptID int64, description string) (*model.ConceptDescription, error) {
	d, err := scanDescription(db.queryRow(ctx, `
	SELECT `+descriptionColumns+` FROM concept_description
	WHERE concept_id = ? AND description = ?`, conceptID, description))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find description of concept %d: %w", conceptID, err)
	}
	return d, nil
}

// InsertConceptDescription creates a description row and sets d.ID.
func (db *DB) InsertConceptDescription(ctx context.Context, d *model.ConceptDescription) error {
	id, err := db.insertReturning(ctx, `
	INSERT INTO concept_description (concept_id, description, locale, uuid, creator, date_created)
	VALUES (?, ?, ?, ?, ?, ?)`, "concept_description_id",
		d.ConceptID, d.Description, d.Locale, d.UUID, d.Creator, formatTime(d.DateCreated))
	if err != nil {
		return fmt.Errorf("failed to insert description of concept %d: %w", d.ConceptID, err)
	}
	d.ID = id
	return nil
}

// ConceptDescriptions returns the descriptions of a concept in creation order.
func (db *DB) ConceptDescriptions(ctx context.Context, conceptID int64) ([]*model.ConceptDescription, error) {
	rows, err := db.query(ctx, `
	SELECT `+descriptionColumns+` FROM concept_description
	WHERE concept_id = ?
	ORDER BY concept_description_id ASC`, conceptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query descriptions of concept %d: %w", conceptID, err)
	}
	defer rows.Close()

	var descriptions []*model.ConceptDescription
	for rows.Next() {
		d, err := scanDescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concept description: %w", err)
		}
		descriptions = append(descriptions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating concept descriptions: %w", err)
	}
	return descriptions, nil
}

// FindConceptNumeric returns the numeric metadata of a concept.
func (db *DB) FindConceptNumeric(ctx context.Context, conceptID int64) (*model.ConceptNumeric, error) {
	var (
		hiAbs, hiCrit, hiNorm    sql.NullFloat64
		lowAbs, lowCrit, lowNorm sql.NullFloat64
		units                    sql.NullString
		precise                  sql.NullBool
		precision                sql.NullInt64
	)
	err := db.queryRow(ctx, `
	SELECT hi_absolute, hi_critical, hi_normal, low_absolute, low_critical, low_normal,
	       units, precise, display_precision
	FROM concept_numeric WHERE concept_id = ?`, conceptID).
		Scan(&hiAbs, &hiCrit, &hiNorm, &lowAbs, &lowCrit, &lowNorm, &units, &precise, &precision)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find numeric metadata of concept %d: %w", conceptID, err)
	}

	return &model.ConceptNumeric{
		ConceptID:        conceptID,
		HiAbsolute:       floatPtr(hiAbs),
		HiCritical:       floatPtr(hiCrit),
		HiNormal:         floatPtr(hiNorm),
		LowAbsolute:      floatPtr(lowAbs),
		LowCritical:      floatPtr(lowCrit),
		LowNormal:        floatPtr(lowNorm),
		Units:            stringPtr(units),
		Precise:          boolPtr(precise),
		DisplayPrecision: intPtr(precision),
	}, nil
}

// InsertConceptNumeric creates the numeric row of a concept. Absent values
// are stored as NULL.
func (db *DB) InsertConceptNumeric(ctx context.Context, n *model.ConceptNumeric) error {
	err := db.exec(ctx, `
	INSERT INTO concept_numeric (concept_id, hi_absolute, hi_critical, hi_normal,
		low_absolute, low_critical, low_normal, units, precise, display_precision)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ConceptID,
		nullFloat(n.HiAbsolute), nullFloat(n.HiCritical), nullFloat(n.HiNormal),
		nullFloat(n.LowAbsolute), nullFloat(n.LowCritical), nullFloat(n.LowNormal),
		nullString(n.Units), nullBool(n.Precise), nullInt(n.DisplayPrecision),
	)
	if err != nil {
		return fmt.Errorf("failed to insert numeric metadata of concept %d: %w", n.ConceptID, err)
	}
	return nil
}
