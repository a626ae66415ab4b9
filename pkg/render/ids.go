package render

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultIDPrefix prefixes generated render target ids.
const DefaultIDPrefix = "mermaid"

// IDGenerator issues element ids for render targets. Every render asks for a
// new id so re-rendering the same diagram never reuses one.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to [IDGenerator].
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string { return f() }

// UUIDGenerator issues ids of the form "<prefix>-<9 random chars>".
type UUIDGenerator struct {
	Prefix string
}

// NewID returns a fresh random id.
func (g UUIDGenerator) NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefixOrDefault(g.Prefix) + "-" + raw[:9]
}

// SequenceGenerator issues "<prefix>-1", "<prefix>-2", ... It is safe for
// concurrent use and deterministic, which makes it the generator for tests.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

// NewID returns the next id in the sequence.
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", prefixOrDefault(g.Prefix), g.n.Add(1))
}

func prefixOrDefault(p string) string {
	if p == "" {
		return DefaultIDPrefix
	}
	return p
}
