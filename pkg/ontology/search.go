package ontology

import (
	"strings"
	"unicode/utf8"
)

// NormalizeQuery trims and lowercases a query the way Search does.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search runs SearchWithOptions with the default limits.
func (idx *Index) Search(query string) []Match {
	return idx.SearchWithOptions(query, DefaultSearchOptions())
}

// SearchWithOptions returns the first opts.MaxResults terms, in index order,
// whose label, definition or any synonym contains the query.
// Queries shorter than opts.MinQueryLen after trimming return an empty result.
func (idx *Index) SearchWithOptions(query string, opts SearchOptions) []Match {
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = DefaultMinQueryLen
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	q := NormalizeQuery(query)
	if utf8.RuneCountInString(q) < opts.MinQueryLen || idx.Len() == 0 {
		return []Match{}
	}

	results := make([]Match, 0, min(opts.MaxResults, 16))
	for pos := range idx.folded {
		if !idx.folded[pos].contains(q) {
			continue
		}
		t := idx.terms[pos]
		results = append(results, Match{ID: t.ID, Label: t.Label})
		if len(results) >= opts.MaxResults {
			break
		}
	}
	return results
}

// contains checks label, then definition, then synonyms.
func (f *foldedTerm) contains(q string) bool {
	if strings.Contains(f.label, q) {
		return true
	}
	if strings.Contains(f.definition, q) {
		return true
	}
	for _, syn := range f.synonyms {
		if strings.Contains(syn, q) {
			return true
		}
	}
	return false
}
