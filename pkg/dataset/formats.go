package dataset

import (
	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/tidwall/gjson"
)

// Shape is the top-level layout of a dataset payload.
type Shape int

const (
	ShapeUnknown   Shape = iota
	ShapeFlat            // bare array of term records
	ShapeVersioned       // {"hpo_version": ..., "nodes": [...]}
	ShapeGraph           // obographs export, graphs[0].nodes
)

// ShapeInfo describes where a shape keeps its records.
type ShapeInfo struct {
	Shape       Shape
	Description string
	NodesPath   string // gjson path to the record array, empty for the root
}

var supportedShapes = map[Shape]ShapeInfo{
	ShapeFlat: {
		Shape:       ShapeFlat,
		Description: "Flat term list",
		NodesPath:   "",
	},
	ShapeVersioned: {
		Shape:       ShapeVersioned,
		Description: "Versioned term list",
		NodesPath:   "nodes",
	},
	ShapeGraph: {
		Shape:       ShapeGraph,
		Description: "Ontology graph export",
		NodesPath:   "graphs.0.nodes",
	},
}

func (s Shape) String() string {
	if info, ok := supportedShapes[s]; ok {
		return info.Description
	}
	return "Unknown"
}

// GetShapeInfo returns information about a specific shape.
func GetShapeInfo(shape Shape) (ShapeInfo, bool) {
	info, exists := supportedShapes[shape]
	return info, exists
}

// DetectShape inspects the top level of payload. Anything that is not valid
// JSON or not one of the known shapes is a *ontology.DataFormatError.
func DetectShape(payload []byte) (Shape, error) {
	if !gjson.ValidBytes(payload) {
		return ShapeUnknown, ontology.NewDataFormatError("payload is not valid JSON", nil)
	}

	root := gjson.ParseBytes(payload)
	switch {
	case root.IsArray():
		return ShapeFlat, nil
	case root.IsObject():
		if root.Get(supportedShapes[ShapeGraph].NodesPath).IsArray() {
			return ShapeGraph, nil
		}
		if root.Get(supportedShapes[ShapeVersioned].NodesPath).IsArray() {
			return ShapeVersioned, nil
		}
		if root.Get("graphs").Exists() {
			return ShapeUnknown, ontology.NewDataFormatError("expected graphs[0].nodes to be an array", nil)
		}
		return ShapeUnknown, ontology.NewDataFormatError("object has no nodes array", nil)
	default:
		return ShapeUnknown, ontology.NewDataFormatError("top level is neither an array nor an object", nil)
	}
}
