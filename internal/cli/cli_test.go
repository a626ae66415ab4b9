package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/pipeline"
)

const payload = `{"nodes":[{"id":"Web App","attributes":{"type":"frontend","technology":"Next.js"}},{"id":"Users DB","attributes":{"type":"database"}}],"edges":[{"source":"Web App","target":"Users DB","attributes":{"protocol":"SQL"}},{"source":"Web App","target":"Mailer","attributes":{"protocol":"SMTP"}}]}`

const wantMermaid = "graph TD\n" +
	"subgraph FRONTEND\n" +
	"  Web_App[\"Web App\n(Next.js)\"]\n" +
	"end\n" +
	"subgraph DATABASE\n" +
	"  Users_DB[(Users DB)]\n" +
	"end\n" +
	"Web_App -->|SQL| Users_DB\n"

// testCLI returns a CLI writing output to a buffer, a config file in a
// temporary directory, and the directory.
func testCLI(t *testing.T, configTOML string) (*CLI, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if configTOML != "" {
		if err := os.WriteFile(cfgPath, []byte(configTOML), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = prev })

	var out bytes.Buffer
	c := &CLI{Logger: newLogger(io.Discard, log.InfoLevel), Out: &out}
	c.configPath = cfgPath
	return c, &out, dir
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append(args, "--config", c.configPath))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writePayload(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "arch.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersCommands(t *testing.T) {
	c, _, _ := testCLI(t, "")
	root := c.RootCommand()

	want := []string{"convert", "diagram", "projects", "estimation", "serve", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestConvertToStdout(t *testing.T) {
	c, out, dir := testCLI(t, "")
	input := writePayload(t, dir)

	if err := execute(t, c, "convert", input, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if out.String() != wantMermaid {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), wantMermaid)
	}
}

func TestConvertToFile(t *testing.T) {
	c, out, dir := testCLI(t, "")
	input := writePayload(t, dir)
	target := filepath.Join(dir, "out", "arch.mmd")

	if err := execute(t, c, "convert", input, "--no-cache", "-d", "LR", "--strict=false", "-o", target); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", out.String())
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "graph LR\n") {
		t.Errorf("direction flag ignored:\n%s", got)
	}
	if !strings.HasSuffix(got, "Web_App -->|SMTP| Mailer\n") {
		t.Errorf("--strict=false should keep the dangling edge:\n%s", got)
	}
}

func TestConvertUsesConfigDefaults(t *testing.T) {
	c, out, dir := testCLI(t, "[render]\ndirection = \"LR\"\nstrict = false\n")
	input := writePayload(t, dir)

	if err := execute(t, c, "convert", input, "--no-cache", "-f", "dot"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "rankdir=LR") {
		t.Errorf("config direction not applied:\n%s", got)
	}
	if !strings.Contains(got, `"Web App" -> "Mailer"`) {
		t.Errorf("config strict=false not applied:\n%s", got)
	}
}

func TestConvertErrors(t *testing.T) {
	c, _, dir := testCLI(t, "")
	input := writePayload(t, dir)

	tests := [][]string{
		{"convert", filepath.Join(dir, "missing.json")},
		{"convert", input, "-f", "gif"},
		{"convert", input, "-d", "BT"},
		{"convert", input, "--shape", "tree"},
		{"convert", "-", "--watch"},
	}
	for _, args := range tests {
		if err := execute(t, c, append(args, "--no-cache")...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	c, out, _ := testCLI(t, "[backend]\nurl = \"http://backend:8080\"\ncookie = \"connect.sid=secret\"\n")
	if err := execute(t, c, "config", "show"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if strings.Contains(got, "secret") {
		t.Errorf("cookie leaked:\n%s", got)
	}
	if !strings.Contains(got, "http://backend:8080") {
		t.Errorf("backend url missing:\n%s", got)
	}
}

func TestConfigInit(t *testing.T) {
	c, _, _ := testCLI(t, "")
	if err := execute(t, c, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(c.configPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := execute(t, c, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if err := execute(t, c, "config", "init", "--force"); err != nil {
		t.Error(err)
	}
}

func TestConfigPath(t *testing.T) {
	c, out, _ := testCLI(t, "")
	if err := execute(t, c, "config", "path"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != c.configPath {
		t.Errorf("path = %q, want %q", out.String(), c.configPath)
	}
}

func TestCachePathAndClear(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	c, out, _ := testCLI(t, "[cache]\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n")

	if err := execute(t, c, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != filepath.ToSlash(cacheDir) {
		t.Errorf("cache path = %q", out.String())
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "entry.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(cacheDir)
	if len(entries) != 0 {
		t.Errorf("cache not cleared: %d entries left", len(entries))
	}
}

func TestProjectsFromSavedList(t *testing.T) {
	c, out, dir := testCLI(t, "")
	list := filepath.Join(dir, "projects.json")
	data := `[{"_id":"p1","name":"Shop","createdAt":"2025-01-02T00:00:00Z","architectureDiagram":"{}"},{"_id":"p2","name":"Blog","createdAt":"2025-03-01T00:00:00Z"}]`
	if err := os.WriteFile(list, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, c, "projects", "--from", list, "--json"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if strings.Index(got, "Blog") > strings.Index(got, "Shop") {
		t.Errorf("projects should be newest first:\n%s", got)
	}

	out.Reset()
	if err := execute(t, c, "projects", "--from", list); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Shop", "Blog", "p1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("table missing %q:\n%s", want, out.String())
		}
	}
}

func TestDiagramFromSavedList(t *testing.T) {
	c, out, dir := testCLI(t, "")
	list := filepath.Join(dir, "projects.json")
	escaped := strings.ReplaceAll(payload, `"`, `\"`)
	data := `[{"_id":"p1","name":"Shop","architectureDiagram":"` + escaped + `"},{"_id":"p2","name":"Empty"}]`
	if err := os.WriteFile(list, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, c, "diagram", "p1", "--from", list, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if out.String() != wantMermaid {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), wantMermaid)
	}

	if err := execute(t, c, "diagram", "p2", "--from", list, "--no-cache"); err == nil {
		t.Error("project without diagram should fail")
	}
}

func TestCompleteProjectIDs(t *testing.T) {
	c, _, dir := testCLI(t, "")
	list := filepath.Join(dir, "projects.json")
	data := `[{"_id":"shop-1","name":"Shop"},{"_id":"shop-2","name":"Shop v2"},{"_id":"blog","name":"Blog"}]`
	if err := os.WriteFile(list, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	diagram, _, err := c.RootCommand().Find([]string{"diagram"})
	if err != nil {
		t.Fatal(err)
	}
	if err := diagram.Flags().Set("from", list); err != nil {
		t.Fatal(err)
	}

	got, directive := c.completeProjectIDs(diagram, nil, "shop")
	want := []string{"shop-1\tShop", "shop-2\tShop v2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("completions = %q, want %q", got, want)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if got, _ := c.completeProjectIDs(diagram, []string{"blog"}, ""); len(got) != 0 {
		t.Errorf("second argument should not complete, got %q", got)
	}
}

func TestDiagramPublish(t *testing.T) {
	c, _, dir := testCLI(t, "")
	store := filepath.Join(dir, "artifacts")
	list := filepath.Join(dir, "projects.json")
	escaped := strings.ReplaceAll(payload, `"`, `\"`)
	data := `[{"_id":"p1","name":"Shop","architectureDiagram":"` + escaped + `"}]`
	if err := os.WriteFile(list, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.configPath, []byte("[artifact]\ndir = \""+filepath.ToSlash(store)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, c, "diagram", "p1", "--from", list, "--no-cache", "--publish"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(store, "p1", "diagram.mmd"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != wantMermaid {
		t.Errorf("published:\n%s", got)
	}
}

func TestPipelineOptionsFlagsOverrideConfig(t *testing.T) {
	c, _, _ := testCLI(t, "")
	var f diagramFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--renderer", "graphviz", "-f", "svg", "--strict=false"}); err != nil {
		t.Fatal(err)
	}
	opts, err := c.pipelineOptions(cmd, &f)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Renderer != pipeline.RendererGraphviz || opts.Format != pipeline.FormatSVG || opts.Strict {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Direction != "TD" {
		t.Errorf("direction = %q, want config default TD", opts.Direction)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, base, format, want string
	}{
		{"", "arch", "mermaid", ""},
		{"x.mmd", "arch", "mermaid", "x.mmd"},
		{"", "arch", "svg", "arch.svg"},
		{"y.png", "arch", "png", "y.png"},
	}
	for _, tt := range tests {
		opts := pipeline.Options{Format: tt.format}
		if got := outputPath(tt.output, tt.base, opts); got != tt.want {
			t.Errorf("outputPath(%q, %q, %s) = %q, want %q", tt.output, tt.base, tt.format, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"":                 "diagram",
		"-":                "diagram",
		"arch.json":        "arch",
		"dir/sub/app.json": "app",
		"noext":            "noext",
	}
	for in, want := range tests {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
