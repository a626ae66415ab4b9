package render

import (
	"regexp"
	"sync"
	"testing"
)

func TestUUIDGenerator(t *testing.T) {
	re := regexp.MustCompile(`^mermaid-[0-9a-f]{9}$`)
	var g UUIDGenerator
	a, b := g.NewID(), g.NewID()
	if !re.MatchString(a) {
		t.Errorf("NewID() = %q, want mermaid-<9 hex>", a)
	}
	if a == b {
		t.Errorf("NewID() returned %q twice", a)
	}

	custom := UUIDGenerator{Prefix: "arch"}
	if id := custom.NewID(); !regexp.MustCompile(`^arch-[0-9a-f]{9}$`).MatchString(id) {
		t.Errorf("prefixed NewID() = %q", id)
	}
}

func TestSequenceGenerator(t *testing.T) {
	g := &SequenceGenerator{}
	for i, want := range []string{"mermaid-1", "mermaid-2", "mermaid-3"} {
		if got := g.NewID(); got != want {
			t.Errorf("call %d: NewID() = %q, want %q", i, got, want)
		}
	}
}

func TestSequenceGeneratorConcurrent(t *testing.T) {
	g := &SequenceGenerator{Prefix: "p"}
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.NewID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 50 {
		t.Errorf("got %d unique ids, want 50", len(seen))
	}
}

func TestIDFunc(t *testing.T) {
	var g IDGenerator = IDFunc(func() string { return "fixed" })
	if got := g.NewID(); got != "fixed" {
		t.Errorf("NewID() = %q", got)
	}
}
