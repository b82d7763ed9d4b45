package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/charmbracelet/log"
)

// flatRecord is the on-disk record written by Preprocess.
type flatRecord struct {
	ID         string              `json:"id"`
	Label      string              `json:"lbl"`
	Definition string              `json:"definition"`
	Synonyms   []string            `json:"synonyms"`
	Neighbors  []ontology.Neighbor `json:"neighbors,omitempty"`
}

type versionedFile struct {
	Version string       `json:"hpo_version"`
	Nodes   []flatRecord `json:"nodes"`
}

// PreprocessStats summarizes a Preprocess run.
type PreprocessStats struct {
	Shape    Shape
	Version  string
	Total    int
	Written  int
	Obsolete int
	Skipped  int
}

// Preprocess reads any supported payload from r and writes the compact form
// to w: a versioned object when the version is known, a bare array otherwise.
// Records without an id or a label are left out.
func Preprocess(r io.Reader, w io.Writer) (PreprocessStats, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return PreprocessStats{}, fmt.Errorf("reading input: %w", err)
	}

	ds, err := Parse(payload)
	if err != nil {
		return PreprocessStats{}, err
	}

	stats := PreprocessStats{
		Shape:    ds.Shape,
		Version:  ds.Version,
		Total:    len(ds.Records) + ds.Obsolete + ds.Malformed,
		Obsolete: ds.Obsolete,
		Skipped:  ds.Malformed,
	}

	nodes := make([]flatRecord, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if rec.ID == "" || rec.Label == "" {
			stats.Skipped++
			continue
		}
		synonyms := rec.Synonyms
		if synonyms == nil {
			synonyms = []string{}
		}
		nodes = append(nodes, flatRecord{
			ID:         rec.ID,
			Label:      rec.Label,
			Definition: rec.Definition,
			Synonyms:   synonyms,
			Neighbors:  rec.Neighbors,
		})
	}
	stats.Written = len(nodes)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var out any = nodes
	if ds.Version != "" {
		out = versionedFile{Version: ds.Version, Nodes: nodes}
	}
	if err := enc.Encode(out); err != nil {
		return stats, fmt.Errorf("writing output: %w", err)
	}

	log.Debugf("Preprocessed %d of %d nodes (%d obsolete, %d skipped)",
		stats.Written, stats.Total, stats.Obsolete, stats.Skipped)
	return stats, nil
}
