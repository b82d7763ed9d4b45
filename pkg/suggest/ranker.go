package suggest

import (
	"sort"

	"github.com/bastiangx/hposerve/pkg/ontology"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultRelatedLimit is how many related terms Rank returns when k <= 0.
const DefaultRelatedLimit = 15

// Candidate is a term related to the current selection.
type Candidate struct {
	ID    string  `json:"id" msgpack:"id"`
	Label string  `json:"label" msgpack:"label"`
	Score float64 `json:"score" msgpack:"score"`
}

// Rank returns the k best neighbors of the selected terms that are not
// themselves selected. A neighbor reached from several seeds keeps its
// highest score. Equal scores keep the order in which they were first met,
// walking seeds in selection order and each seed's neighbors in dataset order.
//
// Unknown seeds and neighbors missing from the index are skipped.
func Rank(selected []string, idx *ontology.Index, k int) []Candidate {
	if len(selected) == 0 || idx.Len() == 0 {
		return []Candidate{}
	}
	if k <= 0 {
		k = DefaultRelatedLimit
	}

	chosen := mapset.NewThreadUnsafeSet(selected...)
	positions := make(map[string]int)
	candidates := make([]Candidate, 0, 2*k)

	visited := mapset.NewThreadUnsafeSet[string]()
	for _, seedID := range selected {
		if !visited.Add(seedID) {
			continue
		}
		seed, ok := idx.Get(seedID)
		if !ok {
			continue
		}

		for _, n := range seed.Neighbors {
			if chosen.Contains(n.ID) {
				continue
			}
			if pos, seen := positions[n.ID]; seen {
				if n.Score > candidates[pos].Score {
					candidates[pos].Score = n.Score
				}
				continue
			}
			term, ok := idx.Get(n.ID)
			if !ok {
				continue
			}
			positions[n.ID] = len(candidates)
			candidates = append(candidates, Candidate{
				ID:    term.ID,
				Label: term.Label,
				Score: n.Score,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
