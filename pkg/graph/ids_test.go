package graph

import "testing"

func TestSafeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"API Gateway", "API_Gateway"},
		{"Auth  Service", "Auth_Service"},
		{"Tab\tand\nnewline", "Tab_and_newline"},
		{" padded ", "_padded_"},
		{"API\u00a0Gateway", "API_Gateway"},
		{"Web\u3000App", "Web_App"},
		{"Vertical\vTab", "Vertical_Tab"},
		{"Thin\u2009\u200aSpace", "Thin_Space"},
		{"Line\u2028Sep", "Line_Sep"},
		{"\ufeffBOM", "_BOM"},
		{"Mixed \u00a0\t run", "Mixed_run"},
		{"Ünïcode", "Ünïcode"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeID(tt.in); got != tt.want {
			t.Errorf("SafeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIDMapLookup(t *testing.T) {
	g := &Graph{Nodes: []Node{{ID: "Web App"}, {ID: "db"}}, Edges: []Edge{}}
	m := NewIDMap(g)

	if got := m.Lookup("Web App"); got != "Web_App" {
		t.Errorf("Lookup(known) = %q, want %q", got, "Web_App")
	}
	if got := m.Lookup("Ghost Node"); got != "Ghost_Node" {
		t.Errorf("Lookup(unknown) = %q, want %q", got, "Ghost_Node")
	}
	if len(NewIDMap(nil)) != 0 {
		t.Error("NewIDMap(nil) should be empty")
	}
}

func TestCollisions(t *testing.T) {
	g := &Graph{Nodes: []Node{
		{ID: "User Service"},
		{ID: "User  Service"},
		{ID: "Cache"},
		{ID: "User_Service"},
	}}

	got := Collisions(g)
	if len(got) != 1 {
		t.Fatalf("Collisions() = %v, want 1 collision", got)
	}
	if got[0].SafeID != "User_Service" {
		t.Errorf("SafeID = %q, want %q", got[0].SafeID, "User_Service")
	}
	if len(got[0].IDs) != 3 {
		t.Errorf("IDs = %v, want 3 raw ids", got[0].IDs)
	}

	if Collisions(&Graph{Nodes: []Node{{ID: "a"}, {ID: "b"}}}) != nil {
		t.Error("distinct ids should not collide")
	}
}
