package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/archview/pkg/graph"
)

func sampleGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "Web App", Attributes: graph.NodeAttributes{Type: "frontend", Technology: "React"}},
			{ID: "API", Attributes: graph.NodeAttributes{Type: "backend", Components: []string{"auth", "billing"}}},
			{ID: "Main DB", Attributes: graph.NodeAttributes{Type: "database", Technology: "PostgreSQL"}},
			{ID: "Worker"},
		},
		Edges: []graph.Edge{
			{Source: "Web App", Target: "API", Attributes: graph.EdgeAttributes{Protocol: "HTTPS"}},
			{Source: "API", Target: "Main DB"},
		},
	}
}

func TestToDOTMissingData(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.Graph
	}{
		{"nil", nil},
		{"no nodes", &graph.Graph{Edges: []graph.Edge{}}},
		{"no edges", &graph.Graph{Nodes: []graph.Node{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToDOT(tt.g, Options{}); got != "" {
				t.Errorf("ToDOT() = %q, want empty", got)
			}
		})
	}
}

func TestToDOTStructure(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G {\n",
		"rankdir=TB;",
		"subgraph cluster_0 {\n    label=\"FRONTEND\";",
		"subgraph cluster_1 {\n    label=\"BACKEND\";",
		"subgraph cluster_2 {\n    label=\"DATABASE\";",
		`"Web App" [label="Web App\n(React)"]`,
		`"Main DB" [label="Main DB\n(PostgreSQL)", shape=cylinder`,
		`  "Worker" [label="Worker"];`,
		`"Web App" -> "API" [label="HTTPS"];`,
		`"API" -> "Main DB";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "billing") {
		t.Error("components rendered without Detailed")
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{RankDir: "LR", Detailed: true})
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Error("RankDir not applied")
	}
	if !strings.Contains(dot, `"API" [label="API\nauth\nbilling"]`) {
		t.Errorf("Detailed label missing components:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.40 200.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)

	got := string(normalizeViewBox(in, "mermaid-1"))
	want := `<svg xmlns="http://www.w3.org/2000/svg" id="mermaid-1" viewBox="0 0 100.40 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() =\n%s\nwant\n%s", got, want)
	}

	if got := string(normalizeViewBox([]byte("<svg/>"), "")); got != "<svg/>" {
		t.Errorf("no viewBox: got %q", got)
	}
}
