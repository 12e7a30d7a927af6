package doi

import (
	"context"
	"regexp"
	"strings"
)

var syntax = regexp.MustCompile(`(?i)^10\.\d{4,9}/[-._;()/:A-Z0-9]+$`)

// Valid reports whether value is a syntactically valid DOI.
func Valid(value string) bool {
	return syntax.MatchString(value)
}

// Normalize trims whitespace and a resolver prefix.
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		if len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return value[len(prefix):]
		}
	}
	return value
}

// ResolverURL returns the public resolver link for a DOI.
func ResolverURL(value string) string {
	return "https://doi.org/" + value
}

// Metadata is what a registrar needs to mint an identifier.
type Metadata struct {
	ManuscriptID string   `json:"manuscriptId"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Abstract     string   `json:"abstract,omitempty"`
	URL          string   `json:"url"`
	IssueLabel   string   `json:"issue,omitempty"`
	Year         int      `json:"year,omitempty"`
}

// Registrar assigns external identifiers.
type Registrar interface {
	Assign(ctx context.Context, meta Metadata) (string, error)
}
