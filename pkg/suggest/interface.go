// Package suggest is the core, ranking related terms for a selection and serving cached term searches over an ontology index.
package suggest

import "github.com/bastiangx/hposerve/pkg/ontology"

// ISearcher defines what the front ends (IPC server, HTTP API, CLI) need from the engine
type ISearcher interface {
	// Search returns matching terms for a free-text query
	Search(query string) []ontology.Match

	// Related ranks the neighbors of the selected ids, k <= 0 uses the configured limit
	Related(selected []string, k int) []Candidate

	// Term looks up a single term by id
	Term(id string) (*ontology.Term, bool)

	// Lookup returns terms whose id starts with prefix
	Lookup(prefix string, limit int) []ontology.Match

	// Stats returns statistics about the loaded index and cache
	Stats() map[string]int
}
