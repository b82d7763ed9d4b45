package ontology

import (
	"fmt"
	"strings"
	"testing"
)

func TestSearchFieldPriority(t *testing.T) {
	idx := Build([]RawTerm{
		{ID: "HP:1", Label: "Seizure"},
		{ID: "HP:2", Label: "Ataxia", Definition: "Lack of coordination, sometimes with seizure onset."},
		{ID: "HP:3", Label: "Epilepsy", Synonyms: []string{"Recurrent SEIZURES"}},
		{ID: "HP:4", Label: "Hypotonia", Definition: "Reduced muscle tone."},
	})

	testCases := []struct {
		query       string
		want        []string
		description string
	}{
		{"seizure", []string{"HP:1", "HP:2", "HP:3"}, "label, definition and synonym hits keep index order"},
		{"SEIZURE", []string{"HP:1", "HP:2", "HP:3"}, "query casing is ignored"},
		{"  seizure  ", []string{"HP:1", "HP:2", "HP:3"}, "query is trimmed"},
		{"coordination", []string{"HP:2"}, "definition only"},
		{"recurrent", []string{"HP:3"}, "synonym only"},
		{"muscle tone", []string{"HP:4"}, "multi-word substring"},
		{"zzz", []string{}, "no match"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := idx.Search(tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("Search(%q): expected %v, got %v", tc.query, tc.want, got)
			}
			for i, m := range got {
				if m.ID != tc.want[i] {
					t.Errorf("Search(%q)[%d]: expected %s, got %s", tc.query, i, tc.want[i], m.ID)
				}
			}
		})
	}
}

func TestSearchShortQueries(t *testing.T) {
	idx := Build(sampleRecords())

	for _, q := range []string{"", " ", "t", "  t  ", "\tl\n", "é"} {
		if got := idx.Search(q); got == nil || len(got) != 0 {
			t.Errorf("Search(%q): expected empty non-nil result, got %v", q, got)
		}
	}

	// two runes is enough even when the bytes are multi-byte
	idx = Build([]RawTerm{{ID: "HP:1", Label: "Café éé"}})
	if got := idx.Search("éé"); len(got) != 1 {
		t.Errorf("expected two-rune query to match, got %v", got)
	}
}

func TestSearchFindsEveryLabel(t *testing.T) {
	idx := Build(sampleRecords())

	for _, term := range idx.Terms() {
		for _, q := range []string{term.Label, strings.ToUpper(term.Label), strings.ToLower(term.Label)} {
			found := false
			for _, m := range idx.Search(q) {
				if m.ID == term.ID && m.Label == term.Label {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Search(%q) did not return %s", q, term.ID)
			}
		}
	}
}

func TestSearchCapIsPrefixOfFullScan(t *testing.T) {
	records := make([]RawTerm, 0, 120)
	for i := 0; i < 120; i++ {
		label := fmt.Sprintf("Abnormal finding %03d", i)
		if i%3 == 0 {
			label = fmt.Sprintf("Unrelated %03d", i)
		}
		records = append(records, RawTerm{ID: fmt.Sprintf("HP:%04d", i), Label: label})
	}
	idx := Build(records)

	got := idx.Search("abnormal")
	if len(got) != DefaultMaxResults {
		t.Fatalf("expected %d results, got %d", DefaultMaxResults, len(got))
	}

	var full []Match
	for _, term := range idx.Terms() {
		if strings.Contains(strings.ToLower(term.Label), "abnormal") {
			full = append(full, Match{ID: term.ID, Label: term.Label})
		}
	}
	for i := range got {
		if got[i] != full[i] {
			t.Fatalf("result %d: expected %v, got %v", i, full[i], got[i])
		}
	}
}

func TestSearchWithOptions(t *testing.T) {
	idx := Build(sampleRecords())

	got := idx.SearchWithOptions("l", SearchOptions{MinQueryLen: 1, MaxResults: 1})
	if len(got) != 1 || got[0].ID != "HP:0001" {
		t.Errorf("expected only HP:0001, got %v", got)
	}

	// zero options fall back to the defaults
	if got := idx.SearchWithOptions("t", SearchOptions{}); len(got) != 0 {
		t.Errorf("expected default min length to apply, got %v", got)
	}
}

func TestSearchEndToEndExample(t *testing.T) {
	idx := Build(sampleRecords())

	got := idx.Search("tall")
	want := []Match{{ID: "HP:0001", Label: "Tall stature"}}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
