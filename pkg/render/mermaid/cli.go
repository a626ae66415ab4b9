package mermaid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrCLINotFound is returned when the Mermaid CLI binary cannot be located.
var ErrCLINotFound = errors.New("mermaid CLI (mmdc) not found; install with: npm install -g @mermaid-js/mermaid-cli")

// DefaultBinary is the Mermaid CLI executable name.
const DefaultBinary = "mmdc"

// CLI renders Mermaid text to SVG by shelling out to mmdc.
// The zero value uses [DefaultBinary] from PATH and the default theme.
type CLI struct {
	// Binary overrides the executable path.
	Binary string
	// Theme is passed as --theme when set (default, dark, forest, neutral).
	Theme string
}

// Render writes source to a temporary file, runs mmdc, and returns the SVG.
// The id becomes the root SVG element id so repeated renders of the same
// diagram do not clash when embedded in one page.
func (c CLI) Render(ctx context.Context, id, source string) ([]byte, error) {
	bin := c.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, ErrCLINotFound
	}

	dir, err := os.MkdirTemp("", "archview-mmdc-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, err
	}

	args := []string{"-i", in, "-o", out, "-q"}
	if id != "" {
		args = append(args, "--svgId", id)
	}
	if c.Theme != "" {
		args = append(args, "--theme", c.Theme)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("mmdc: %v: %s", err, bytes.TrimSpace(errBuf.Bytes()))
	}
	return os.ReadFile(out)
}
