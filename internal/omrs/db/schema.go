package db

// schemaDDL is shared by both drivers; {{id}} is replaced with the dialect's
// auto-increment primary key.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS concept_class (
	concept_class_id {{id}},
	name TEXT NOT NULL,
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_datatype (
	concept_datatype_id {{id}},
	name TEXT NOT NULL,
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept (
	concept_id {{id}},
	uuid TEXT NOT NULL,
	class_id BIGINT NOT NULL REFERENCES concept_class(concept_class_id),
	datatype_id BIGINT NOT NULL REFERENCES concept_datatype(concept_datatype_id),
	is_set BOOLEAN NOT NULL DEFAULT FALSE,
	retired BOOLEAN NOT NULL DEFAULT FALSE,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_name (
	concept_name_id {{id}},
	concept_id BIGINT NOT NULL REFERENCES concept(concept_id),
	name TEXT NOT NULL,
	locale TEXT NOT NULL,
	locale_preferred BOOLEAN NOT NULL DEFAULT FALSE,
	concept_name_type TEXT,
	uuid TEXT NOT NULL,
	voided BOOLEAN NOT NULL DEFAULT FALSE,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_description (
	concept_description_id {{id}},
	concept_id BIGINT NOT NULL REFERENCES concept(concept_id),
	description TEXT NOT NULL,
	locale TEXT NOT NULL,
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

-- Optional columns stay NULL when the source has no value.
CREATE TABLE IF NOT EXISTS concept_numeric (
	concept_id BIGINT PRIMARY KEY REFERENCES concept(concept_id),
	hi_absolute DOUBLE PRECISION,
	hi_critical DOUBLE PRECISION,
	hi_normal DOUBLE PRECISION,
	low_absolute DOUBLE PRECISION,
	low_critical DOUBLE PRECISION,
	low_normal DOUBLE PRECISION,
	units TEXT,
	precise BOOLEAN,
	display_precision INTEGER
);

CREATE TABLE IF NOT EXISTS concept_reference_source (
	concept_source_id {{id}},
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	hl7_code TEXT,
	uuid TEXT NOT NULL,
	retired BOOLEAN NOT NULL DEFAULT FALSE,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_reference_term (
	concept_reference_term_id {{id}},
	concept_source_id BIGINT NOT NULL REFERENCES concept_reference_source(concept_source_id),
	code TEXT NOT NULL,
	name TEXT,
	uuid TEXT NOT NULL,
	retired BOOLEAN NOT NULL DEFAULT FALSE,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_map_type (
	concept_map_type_id {{id}},
	name TEXT NOT NULL,
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_reference_map (
	concept_map_id {{id}},
	concept_id BIGINT NOT NULL REFERENCES concept(concept_id),
	concept_reference_term_id BIGINT NOT NULL REFERENCES concept_reference_term(concept_reference_term_id),
	concept_map_type_id BIGINT NOT NULL REFERENCES concept_map_type(concept_map_type_id),
	uuid TEXT NOT NULL,
	retired BOOLEAN NOT NULL DEFAULT FALSE,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_answer (
	concept_answer_id {{id}},
	concept_id BIGINT NOT NULL REFERENCES concept(concept_id),
	answer_concept BIGINT NOT NULL REFERENCES concept(concept_id),
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_set (
	concept_set_id {{id}},
	concept_id BIGINT NOT NULL REFERENCES concept(concept_id),
	concept_set BIGINT NOT NULL REFERENCES concept(concept_id),
	uuid TEXT NOT NULL,
	creator BIGINT NOT NULL,
	date_created TEXT NOT NULL
);

-- Natural keys
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_class_name ON concept_class(name);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_datatype_name ON concept_datatype(name);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_uuid ON concept(uuid);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_name_key
	ON concept_name(concept_id, name, locale, locale_preferred);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_description_key
	ON concept_description(concept_id, description);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_reference_source_name ON concept_reference_source(name);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_reference_term_key
	ON concept_reference_term(concept_source_id, code);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_map_type_name ON concept_map_type(name);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_reference_map_key
	ON concept_reference_map(concept_id, concept_reference_term_id, concept_map_type_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_answer_key ON concept_answer(concept_id, answer_concept);
CREATE UNIQUE INDEX IF NOT EXISTS uq_concept_set_key ON concept_set(concept_id, concept_set);

-- Lookups
CREATE INDEX IF NOT EXISTS idx_concept_name_lookup
	ON concept_name(name, locale, locale_preferred);
CREATE INDEX IF NOT EXISTS idx_concept_retired ON concept(retired);
CREATE INDEX IF NOT EXISTS idx_concept_reference_map_concept ON concept_reference_map(concept_id);
`
