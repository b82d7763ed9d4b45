package ontology

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is the immutable set of terms built from one dataset load.
type Index struct {
	terms  []*Term
	folded []foldedTerm
	byID   map[string]int
	ids    *patricia.Trie
	stats  Stats
}

// foldedTerm keeps the lowercased search fields next to each term so a
// search never lowercases the dataset again.
type foldedTerm struct {
	label      string
	definition string
	synonyms   []string
}

// Build indexes records in order. Records without an id or label are skipped.
func Build(records []RawTerm) *Index {
	idx := &Index{
		terms:  make([]*Term, 0, len(records)),
		folded: make([]foldedTerm, 0, len(records)),
		byID:   make(map[string]int, len(records)),
		ids:    patricia.NewTrie(),
	}

	for i := range records {
		term, ok := newTerm(&records[i])
		if !ok {
			idx.stats.Dropped++
			continue
		}

		// last record wins, first position stays
		if pos, exists := idx.byID[term.ID]; exists {
			idx.terms[pos] = term
			idx.folded[pos] = fold(term)
			idx.stats.Replaced++
			continue
		}
		idx.byID[term.ID] = len(idx.terms)
		idx.terms = append(idx.terms, term)
		idx.folded = append(idx.folded, fold(term))
	}

	for pos, term := range idx.terms {
		idx.ids.Insert(patricia.Prefix(strings.ToLower(term.ID)), pos)
		idx.stats.Neighbors += len(term.Neighbors)
		idx.stats.Synonyms += len(term.Synonyms)
	}
	idx.stats.Terms = len(idx.terms)

	log.Debugf("Indexed %d terms (dropped=%d, replaced=%d)",
		idx.stats.Terms, idx.stats.Dropped, idx.stats.Replaced)
	return idx
}

// BuildJSON decodes a JSON array of flat records and builds an index from it.
// It fails only when the payload is not an array; elements that do not
// decode as records are skipped.
func BuildJSON(payload []byte) (*Index, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, NewDataFormatError("expected a JSON array of term records", err)
	}

	records := make([]RawTerm, 0, len(elems))
	skipped := 0
	for _, elem := range elems {
		var rec RawTerm
		if err := json.Unmarshal(elem, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d malformed records", skipped)
	}

	idx := Build(records)
	idx.stats.Dropped += skipped
	return idx, nil
}

func newTerm(rec *RawTerm) (*Term, bool) {
	id := strings.TrimSpace(rec.ID)
	label := strings.TrimSpace(rec.Label)
	if id == "" || label == "" {
		return nil, false
	}

	term := &Term{
		ID:         id,
		Label:      label,
		Definition: rec.Definition,
		Synonyms:   make([]string, 0, len(rec.Synonyms)),
		Neighbors:  make([]Neighbor, 0, len(rec.Neighbors)),
	}
	for _, syn := range rec.Synonyms {
		if syn != "" {
			term.Synonyms = append(term.Synonyms, syn)
		}
	}
	for _, n := range rec.Neighbors {
		// scores are non-negative finite reals
		if n.ID == "" || n.Score < 0 || math.IsNaN(n.Score) || math.IsInf(n.Score, 0) {
			continue
		}
		term.Neighbors = append(term.Neighbors, n)
	}
	return term, true
}

func fold(t *Term) foldedTerm {
	f := foldedTerm{
		label:      strings.ToLower(t.Label),
		definition: strings.ToLower(t.Definition),
		synonyms:   make([]string, len(t.Synonyms)),
	}
	for i, syn := range t.Synonyms {
		f.synonyms[i] = strings.ToLower(syn)
	}
	return f
}

// Len returns the number of indexed terms.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.terms)
}

// Validate returns ErrEmptyDataset when nothing was indexed.
func (idx *Index) Validate() error {
	if idx.Len() == 0 {
		return ErrEmptyDataset
	}
	return nil
}

// Get returns the term stored under id.
func (idx *Index) Get(id string) (*Term, bool) {
	if idx == nil {
		return nil, false
	}
	pos, ok := idx.byID[id]
	if !ok {
		return nil, false
	}
	return idx.terms[pos], true
}

// Terms returns the terms in index order. The slice is a copy; the terms are shared.
func (idx *Index) Terms() []*Term {
	if idx == nil {
		return nil
	}
	out := make([]*Term, len(idx.terms))
	copy(out, idx.terms)
	return out
}

// Stats returns counters collected while building.
func (idx *Index) Stats() Stats {
	if idx == nil {
		return Stats{}
	}
	return idx.stats
}

// LookupPrefix returns terms whose id starts with prefix, ignoring case,
// sorted by id. A limit <= 0 returns every match.
func (idx *Index) LookupPrefix(prefix string, limit int) []Match {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if idx.Len() == 0 || prefix == "" {
		return []Match{}
	}

	var positions []int
	err := idx.ids.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		positions = append(positions, item.(int))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting id trie: %v", err)
		return []Match{}
	}

	matches := make([]Match, 0, len(positions))
	for _, pos := range positions {
		t := idx.terms[pos]
		matches = append(matches, Match{ID: t.ID, Label: t.Label})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
