package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	apperr "github.com/matzehuels/archview/pkg/errors"
)

// Shape selects how a diagram payload is laid out.
type Shape int

const (
	// ShapeAuto accepts either layout. A top-level "diagram" key without a
	// sibling "nodes" key selects the nested form.
	ShapeAuto Shape = iota
	// ShapeFlat expects {"nodes": [...], "edges": [...]}.
	ShapeFlat
	// ShapeNested expects {"diagram": {"nodes": [...], "edges": [...]}}.
	ShapeNested
)

// diagramKey is the wrapper key used by nested payloads.
const diagramKey = "diagram"

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "auto"
	}
}

// ParseShape converts a flag or query value to a Shape.
// The empty string selects [ShapeAuto].
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ShapeAuto, nil
	case "flat":
		return ShapeFlat, nil
	case "nested":
		return ShapeNested, nil
	default:
		return ShapeAuto, apperr.New(apperr.ErrCodeInvalidInput, "invalid shape %q (must be auto, flat or nested)", s)
	}
}

// Decode parses a diagram payload.
//
// A null or empty payload, or a nested payload without its "diagram" value,
// yields a Graph with nil collections and no error. Malformed JSON returns an
// INVALID_INPUT error.
//
// The nested value may itself be a JSON-encoded string, which is how project
// documents store their diagram.
func Decode(data []byte, shape Shape) (*Graph, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &Graph{}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode diagram")
	}

	switch resolveShape(top, shape) {
	case ShapeNested:
		return decodeRaw(top[diagramKey])
	default:
		return decodeRaw(data)
	}
}

// DecodeString parses a diagram stored as a JSON string, as found in the
// architectureDiagram field of a project document.
func DecodeString(s string, shape Shape) (*Graph, error) {
	return Decode([]byte(s), shape)
}

// Read decodes a diagram from r. It does not close r.
func Read(r io.Reader, shape Shape) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read diagram: %w", err)
	}
	return Decode(data, shape)
}

// ImportFile reads and decodes the diagram file at path.
func ImportFile(path string, shape Shape) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, shape)
}

// Marshal encodes g in the flat wire format with two-space indentation.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func resolveShape(top map[string]json.RawMessage, shape Shape) Shape {
	if shape != ShapeAuto {
		return shape
	}
	_, hasDiagram := top[diagramKey]
	_, hasNodes := top["nodes"]
	if hasDiagram && !hasNodes {
		return ShapeNested
	}
	return ShapeFlat
}

func decodeRaw(raw json.RawMessage) (*Graph, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Graph{}, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode diagram string")
		}
		return decodeRaw(json.RawMessage(inner))
	}

	var g Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode diagram")
	}
	return &g, nil
}
