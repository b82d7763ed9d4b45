/*
Package ontology holds the in-memory HPO term index.

An Index is built once from a flat sequence of raw term records and is never
mutated afterwards, so it can be shared freely between goroutines. Records
missing an id or a label are dropped while building; duplicate ids keep the
content of the last record but the position of the first one.

# Search

Search matches the trimmed, lowercased query as a substring of each term's
label, then definition, then synonyms, in index order:

	idx := ontology.Build(records)
	matches := idx.Search("tall")

Queries shorter than two characters return nothing, and at most fifty
matches are returned: the first fifty in index order.

Accession lookups by prefix are served from a Patricia trie:

	idx.LookupPrefix("HP:00012", 10)
*/
package ontology

import (
	"encoding/json"
	"strings"
)

// Neighbor is a precomputed similar term and its similarity score.
type Neighbor struct {
	ID    string  `json:"id" msgpack:"id"`
	Score float64 `json:"score" msgpack:"score"`
}

// Term is a single validated vocabulary entry.
type Term struct {
	ID         string
	Label      string
	Definition string
	Synonyms   []string
	Neighbors  []Neighbor
}

// RawTerm is the flat record shape Build consumes.
type RawTerm struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Definition string     `json:"definition,omitempty"`
	Synonyms   []string   `json:"synonyms,omitempty"`
	Neighbors  []Neighbor `json:"neighbors,omitempty"`
}

// UnmarshalJSON reads the label from "label", "lbl" or "name", in that order.
func (r *RawTerm) UnmarshalJSON(data []byte) error {
	type plain RawTerm
	var aux struct {
		plain
		Lbl  string `json:"lbl"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RawTerm(aux.plain)
	for _, alt := range []string{aux.Lbl, aux.Name} {
		if strings.TrimSpace(r.Label) != "" {
			break
		}
		r.Label = alt
	}
	return nil
}

// Match is a search hit.
type Match struct {
	ID    string `json:"id" msgpack:"id"`
	Label string `json:"label" msgpack:"label"`
}

// SearchOptions bounds a search.
type SearchOptions struct {
	MinQueryLen int
	MaxResults  int
}

const (
	DefaultMinQueryLen = 2
	DefaultMaxResults  = 50
)

// DefaultSearchOptions returns the limits the picker UI has always used.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinQueryLen: DefaultMinQueryLen,
		MaxResults:  DefaultMaxResults,
	}
}

// Stats describes a built index.
type Stats struct {
	Terms     int
	Neighbors int
	Synonyms  int
	Dropped   int
	Replaced  int
}
