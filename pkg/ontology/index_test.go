package ontology

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// sampleRecords is the three-term dataset used across the package tests.
func sampleRecords() []RawTerm {
	return []RawTerm{
		{
			ID:        "HP:0001",
			Label:     "Tall stature",
			Neighbors: []Neighbor{{ID: "HP:0002", Score: 0.9}, {ID: "HP:0003", Score: 0.4}},
		},
		{
			ID:        "HP:0002",
			Label:     "Long limbs",
			Neighbors: []Neighbor{{ID: "HP:0001", Score: 0.9}},
		},
		{
			ID:    "HP:0003",
			Label: "Large hands",
		},
	}
}

func TestBuildDropsInvalidRecords(t *testing.T) {
	records := []RawTerm{
		{ID: "HP:1", Label: "Valid"},
		{ID: "", Label: "No id"},
		{ID: "HP:2", Label: ""},
		{ID: "   ", Label: "Blank id"},
		{ID: "HP:3", Label: "  "},
		{ID: "HP:4", Label: "Also valid"},
	}

	idx := Build(records)
	if idx.Len() != 2 {
		t.Fatalf("expected 2 terms, got %d", idx.Len())
	}
	if stats := idx.Stats(); stats.Dropped != 4 {
		t.Errorf("expected 4 dropped records, got %d", stats.Dropped)
	}
	for _, id := range []string{"HP:1", "HP:4"} {
		if _, ok := idx.Get(id); !ok {
			t.Errorf("expected %s to be indexed", id)
		}
	}
}

func TestBuildDuplicateIDsLastWins(t *testing.T) {
	records := []RawTerm{
		{ID: "HP:1", Label: "First"},
		{ID: "HP:2", Label: "Second"},
		{ID: "HP:1", Label: "Replacement"},
	}

	idx := Build(records)
	if idx.Len() != 2 {
		t.Fatalf("expected 2 terms, got %d", idx.Len())
	}

	term, ok := idx.Get("HP:1")
	if !ok || term.Label != "Replacement" {
		t.Fatalf("expected last-seen label, got %+v", term)
	}

	terms := idx.Terms()
	if terms[0].ID != "HP:1" || terms[1].ID != "HP:2" {
		t.Errorf("expected first-seen positions to be kept, got %s, %s", terms[0].ID, terms[1].ID)
	}
	if idx.Stats().Replaced != 1 {
		t.Errorf("expected 1 replaced record, got %d", idx.Stats().Replaced)
	}
}

func TestBuildFiltersBadNeighbors(t *testing.T) {
	idx := Build([]RawTerm{{
		ID:    "HP:1",
		Label: "Seed",
		Neighbors: []Neighbor{
			{ID: "HP:2", Score: 1.5},
			{ID: "", Score: 1},
			{ID: "HP:3", Score: -0.1},
			{ID: "HP:4", Score: 0},
		},
	}})

	term, _ := idx.Get("HP:1")
	if len(term.Neighbors) != 2 {
		t.Fatalf("expected 2 neighbors kept, got %+v", term.Neighbors)
	}
}

func TestBuildJSON(t *testing.T) {
	testCases := []struct {
		payload     string
		wantTerms   int
		wantErr     bool
		description string
	}{
		{`[{"id":"HP:1","label":"A term"}]`, 1, false, "single record"},
		{`[]`, 0, false, "empty array is valid"},
		{`[{"id":"HP:1","lbl":"A"},{"id":"HP:2","name":"B"}]`, 2, false, "lbl and name label keys"},
		{`[{"id":"HP:1","label":" ","lbl":"A"}]`, 1, false, "blank label falls back to lbl"},
		{`[{"id":"HP:1","label":"A"}, 42, "text", {"id":"HP:2","label":"B"}]`, 2, false, "non-record elements are skipped"},
		{`{"nodes":[]}`, 0, true, "object is not a sequence"},
		{`"just a string"`, 0, true, "string is not a sequence"},
		{`[{"id":`, 0, true, "truncated payload"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			idx, err := BuildJSON([]byte(tc.payload))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tc.payload)
				}
				if !errors.Is(err, ErrDataFormat) {
					t.Errorf("expected ErrDataFormat, got %v", err)
				}
				var dfe *DataFormatError
				if !errors.As(err, &dfe) {
					t.Errorf("expected *DataFormatError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx.Len() != tc.wantTerms {
				t.Errorf("expected %d terms, got %d", tc.wantTerms, idx.Len())
			}
		})
	}
}

func TestValidateEmptyDataset(t *testing.T) {
	idx := Build(nil)
	if !errors.Is(idx.Validate(), ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", idx.Validate())
	}
	if got := idx.Search("anything"); len(got) != 0 {
		t.Errorf("expected no results on empty index, got %v", got)
	}
	if err := Build(sampleRecords()).Validate(); err != nil {
		t.Errorf("expected populated index to validate, got %v", err)
	}
}

func TestLookupPrefix(t *testing.T) {
	records := []RawTerm{
		{ID: "HP:0001250", Label: "Seizure"},
		{ID: "HP:0001249", Label: "Intellectual disability"},
		{ID: "HP:0000118", Label: "Phenotypic abnormality"},
		{ID: "HP:0001263", Label: "Global developmental delay"},
	}
	idx := Build(records)

	testCases := []struct {
		prefix      string
		limit       int
		want        []string
		description string
	}{
		{"HP:00012", 0, []string{"HP:0001249", "HP:0001250", "HP:0001263"}, "sorted by id"},
		{"hp:00012", 2, []string{"HP:0001249", "HP:0001250"}, "case-insensitive with limit"},
		{"HP:0000118", 0, []string{"HP:0000118"}, "exact id"},
		{"HP:9", 0, []string{}, "no match"},
		{"", 0, []string{}, "empty prefix"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := idx.LookupPrefix(tc.prefix, tc.limit)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i, m := range got {
				if m.ID != tc.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tc.want[i], m.ID)
				}
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	records := make([]RawTerm, 0, 20000)
	for i := 0; i < 20000; i++ {
		records = append(records, RawTerm{
			ID:         fmt.Sprintf("HP:%07d", i),
			Label:      fmt.Sprintf("Abnormality of structure %d", i),
			Definition: strings.Repeat("lorem ipsum ", 8),
			Synonyms:   []string{fmt.Sprintf("structure anomaly %d", i)},
		})
	}
	idx := Build(records)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Search("anomaly 199")
	}
}
