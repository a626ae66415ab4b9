package graph

import (
	"slices"
	"strings"
	"unicode"
)

// isSpace reports Unicode white space plus the zero-width no-break space
// (U+FEFF).
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// SafeID returns id with every run of whitespace replaced by a single
// underscore, making it a valid bare identifier in diagram languages.
// Non-ASCII spaces such as NBSP and the ideographic space count too.
func SafeID(id string) string {
	if strings.IndexFunc(id, isSpace) < 0 {
		return id
	}
	var b strings.Builder
	b.Grow(len(id))
	inSpace := false
	for _, r := range id {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// IDMap maps raw node ids to their sanitized form.
type IDMap map[string]string

// NewIDMap builds the raw-to-safe id mapping for every node in g.
func NewIDMap(g *Graph) IDMap {
	m := make(IDMap, g.NodeCount())
	if g == nil {
		return m
	}
	for _, n := range g.Nodes {
		m[n.ID] = SafeID(n.ID)
	}
	return m
}

// Lookup returns the safe id for a raw id. Ids that are not in the map are
// sanitized on the fly; the result then names an undeclared node.
func (m IDMap) Lookup(id string) string {
	if s, ok := m[id]; ok {
		return s
	}
	return SafeID(id)
}

// Collision is a safe id shared by more than one distinct raw id.
type Collision struct {
	SafeID string
	IDs    []string
}

// Collisions reports safe ids produced by two or more distinct node ids,
// in first-encounter order. Such nodes merge in rendered output.
func Collisions(g *Graph) []Collision {
	if g == nil {
		return nil
	}
	bySafe := make(map[string][]string)
	var order []string
	for _, n := range g.Nodes {
		s := SafeID(n.ID)
		ids, ok := bySafe[s]
		if !ok {
			order = append(order, s)
		}
		if !slices.Contains(ids, n.ID) {
			bySafe[s] = append(ids, n.ID)
		}
	}

	var out []Collision
	for _, s := range order {
		if ids := bySafe[s]; len(ids) > 1 {
			out = append(out, Collision{SafeID: s, IDs: ids})
		}
	}
	return out
}
