// Package schema defines the line-delimited JSON interchange records
// exchanged with the terminology registry.
//
// # Overview
//
// A dictionary is exchanged as two files: one concept record per line and one
// mapping record per line. Records are decoded into explicit structs and
// validated once at this boundary; everything past this package can rely on
// required fields being present.
//
// # Concept Records
//
//	{
//	  "id": 100,
//	  "concept_class": "Diagnosis",
//	  "datatype": "N/A",
//	  "external_id": "2a8f...",
//	  "retired": false,
//	  "names": [{"name": "Fever", "name_type": "FULLY_SPECIFIED",
//	             "locale": "en", "locale_preferred": true, "external_id": "..."}],
//	  "descriptions": [],
//	  "extras": {"units": "mg", "hi_normal": 12.5}
//	}
//
// Numeric extras are sparse: a key is present only when the value is set.
//
// # Mapping Records
//
// Mappings come in exactly one of two shapes:
//
//	internal: {map_type, from_concept_url, to_concept_url, external_id, retired}
//	external: {map_type, from_concept_url, to_source_url, to_concept_code,
//	           to_concept_name, external_id, retired}
//
// Concept URLs follow /orgs/{org}/sources/{source}/concepts/{code}/ and source
// URLs follow /orgs/{org}/sources/{source}/.
//
// # Usage Examples
//
// Parsing a line:
//
//	rec, err := schema.ParseConcept(line, lineNum)
//	if errors.Is(err, omrs.ErrMalformedRecord) {
//	    // reject the batch
//	}
//
// Building a URL:
//
//	u := schema.ConceptURL("CIEL", "CIEL", "5089")
package schema
