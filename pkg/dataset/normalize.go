/*
Package dataset turns raw HPO payloads into the flat term records the index is built from.

Three payload shapes are accepted:

	[{"id": "HP:0000001", "lbl": "All", "synonyms": [...], "neighbors": [...]}]
	{"hpo_version": "2024-04-26", "nodes": [...]}
	{"graphs": [{"meta": {...}, "nodes": [{"id": ..., "lbl": ..., "meta": {...}}]}]}

Nodes of an ontology graph export carry their definition under
meta.definition.val and synonyms under meta.synonyms[].val; deprecated nodes
are dropped here so retired terms never reach the index. Every text field is
NFC-normalized and trimmed.

Payloads come from a local file or over HTTP:

	loader := dataset.NewLoader(dataset.DefaultLoaderOptions())
	ds, err := loader.Load(ctx, "data/hpo_data.json")
	idx := ds.Index()
*/
package dataset

import (
	"strings"

	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

const oboPurlPrefix = "http://purl.obolibrary.org/obo/"

// Dataset is a parsed payload.
type Dataset struct {
	Version   string
	Shape     Shape
	Records   []ontology.RawTerm
	Obsolete  int // nodes dropped as deprecated
	Malformed int // array elements that were not objects
}

// Index builds an ontology index from the records.
func (d *Dataset) Index() *ontology.Index {
	return ontology.Build(d.Records)
}

// Parse detects the shape of payload and extracts its records.
func Parse(payload []byte) (*Dataset, error) {
	shape, err := DetectShape(payload)
	if err != nil {
		return nil, err
	}

	info, _ := GetShapeInfo(shape)
	root := gjson.ParseBytes(payload)
	nodes := root
	if info.NodesPath != "" {
		nodes = root.Get(info.NodesPath)
	}

	ds := &Dataset{
		Version: detectVersion(root, shape),
		Shape:   shape,
		Records: make([]ontology.RawTerm, 0, int(nodes.Get("#").Int())),
	}

	nodes.ForEach(func(_, node gjson.Result) bool {
		if !node.IsObject() {
			ds.Malformed++
			return true
		}
		if isObsolete(node) {
			ds.Obsolete++
			return true
		}
		ds.Records = append(ds.Records, recordFromNode(node, shape == ShapeGraph))
		return true
	})

	log.Debugf("Parsed %s: %d records, %d obsolete, %d malformed (version=%q)",
		shape, len(ds.Records), ds.Obsolete, ds.Malformed, ds.Version)
	return ds, nil
}

func recordFromNode(node gjson.Result, graph bool) ontology.RawTerm {
	id := clean(node.Get("id").String())
	if graph {
		id = CompactID(id)
	}

	return ontology.RawTerm{
		ID:         id,
		Label:      firstString(node, "label", "lbl", "name"),
		Definition: definitionOf(node),
		Synonyms:   synonymsOf(node),
		Neighbors:  neighborsOf(node),
	}
}

func isObsolete(node gjson.Result) bool {
	return node.Get("obsolete").Bool() ||
		node.Get("meta.deprecated").Bool() ||
		node.Get("meta.obsolete").Bool()
}

func firstString(node gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := node.Get(key)
		if v.Type != gjson.String {
			continue
		}
		if s := clean(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func definitionOf(node gjson.Result) string {
	def := node.Get("definition")
	switch {
	case def.Type == gjson.String:
		if s := clean(def.String()); s != "" {
			return s
		}
	case def.IsObject():
		if s := clean(def.Get("val").String()); s != "" {
			return s
		}
	}
	return clean(node.Get("meta.definition.val").String())
}

func synonymsOf(node gjson.Result) []string {
	var synonyms []string
	for _, path := range []string{"synonyms", "meta.synonyms"} {
		node.Get(path).ForEach(func(_, syn gjson.Result) bool {
			var s string
			switch {
			case syn.Type == gjson.String:
				s = syn.String()
			case syn.IsObject():
				s = syn.Get("val").String()
			}
			if s = clean(s); s != "" {
				synonyms = append(synonyms, s)
			}
			return true
		})
	}
	return synonyms
}

// neighborsOf accepts [{"id": ..., "score": ...}] or [[id, score]] under
// "neighbors" or its alias "similar".
func neighborsOf(node gjson.Result) []ontology.Neighbor {
	list := node.Get("neighbors")
	if !list.Exists() {
		list = node.Get("similar")
	}

	var neighbors []ontology.Neighbor
	list.ForEach(func(_, n gjson.Result) bool {
		var id, score gjson.Result
		switch {
		case n.IsObject():
			id, score = n.Get("id"), n.Get("score")
		case n.IsArray():
			pair := n.Array()
			if len(pair) < 2 {
				return true
			}
			id, score = pair[0], pair[1]
		default:
			return true
		}
		if id.Type != gjson.String || score.Type != gjson.Number {
			return true
		}
		neighbors = append(neighbors, ontology.Neighbor{
			ID:    clean(id.String()),
			Score: score.Float(),
		})
		return true
	})
	return neighbors
}

func detectVersion(root gjson.Result, shape Shape) string {
	switch shape {
	case ShapeVersioned:
		return firstString(root, "hpo_version", "version")
	case ShapeGraph:
		if v := firstString(root, "hpo_version"); v != "" {
			return v
		}
		return ReleaseFromIRI(clean(root.Get("graphs.0.meta.version").String()))
	}
	return ""
}

// CompactID turns an OBO PURL such as http://purl.obolibrary.org/obo/HP_0000118
// into HP:0000118. Other ids are returned unchanged.
func CompactID(id string) string {
	local, ok := strings.CutPrefix(id, oboPurlPrefix)
	if !ok || local == "" {
		return id
	}
	return strings.Replace(local, "_", ":", 1)
}

// ReleaseFromIRI extracts the release tag from a versionIRI like
// http://purl.obolibrary.org/obo/hp/releases/2024-04-26/hp.json.
func ReleaseFromIRI(iri string) string {
	_, rest, ok := strings.Cut(iri, "/releases/")
	if !ok {
		return iri
	}
	release, _, _ := strings.Cut(rest, "/")
	return release
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
