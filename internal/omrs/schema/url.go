package schema

import (
	"fmt"
	"strings"
)

// ConceptRef identifies a concept inside a registry source.
type ConceptRef struct {
	OrgID    string
	SourceID string
	Code     string
}

// SourceRef identifies a registry source.
type SourceRef struct {
	OrgID    string
	SourceID string
}

// ConceptURL returns the registry path of a concept.
func ConceptURL(orgID, sourceID, code string) string {
	return fmt.Sprintf("/orgs/%s/sources/%s/concepts/%s/", orgID, sourceID, code)
}

// SourceURL returns the registry path of a source.
func SourceURL(orgID, sourceID string) string {
	return fmt.Sprintf("/orgs/%s/sources/%s/", orgID, sourceID)
}

// ParseConceptURL splits a concept path into its parts. A scheme and host
// prefix is tolerated; the trailing slash is optional.
func ParseConceptURL(u string) (ConceptRef, error) {
	parts, err := splitRegistryPath(u)
	if err != nil {
		return ConceptRef{}, err
	}
	if len(parts) != 6 || parts[4] != "concepts" || parts[5] == "" {
		return ConceptRef{}, fmt.Errorf("is not a concept URL: %q", u)
	}
	return ConceptRef{OrgID: parts[1], SourceID: parts[3], Code: parts[5]}, nil
}

// ParseSourceURL splits a source path into its parts.
func ParseSourceURL(u string) (SourceRef, error) {
	parts, err := splitRegistryPath(u)
	if err != nil {
		return SourceRef{}, err
	}
	if len(parts) != 4 {
		return SourceRef{}, fmt.Errorf("is not a source URL: %q", u)
	}
	return SourceRef{OrgID: parts[1], SourceID: parts[3]}, nil
}

func splitRegistryPath(u string) ([]string, error) {
	i := strings.Index(u, "/orgs/")
	if i < 0 {
		return nil, fmt.Errorf("is not a registry URL: %q", u)
	}
	parts := strings.Split(strings.Trim(u[i:], "/"), "/")
	if len(parts) < 4 || parts[0] != "orgs" || parts[2] != "sources" || parts[1] == "" || parts[3] == "" {
		return nil, fmt.Errorf("is not a registry URL: %q", u)
	}
	return parts, nil
}
