package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/archview/pkg/pipeline"
)

// statusOut receives status lines. Diagram text and tables go to CLI.Out,
// so piping stdout yields only the requested output.
var statusOut io.Writer = os.Stderr

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleLink      = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorAccent)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleHeader      = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	styleKey         = lipgloss.NewStyle().Foreground(colorMuted).Width(14)
	styleValue       = lipgloss.NewStyle().Foreground(colorText)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
)

var (
	iconSuccess = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	iconError   = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	iconWarning = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	iconInfo    = lipgloss.NewStyle().Foreground(colorMuted).Render("›")
)

func status(icon, format string, args ...any) {
	fmt.Fprintln(statusOut, icon+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(iconSuccess, format, args...) }
func printError(format string, args ...any)   { status(iconError, format, args...) }
func printInfo(format string, args ...any)    { status(iconInfo, format, args...) }

func printWarning(format string, args ...any) {
	status(iconWarning, "%s", lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render("→")+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(statusOut, "  "+styleKey.Render(key)+" "+styleValue.Render(value))
}

// printStats summarizes a conversion on one line, e.g.
// "5 nodes · 4 edges · 1 dropped · cached".
func printStats(res *pipeline.Result) {
	parts := []string{
		StyleDim.Render(plural(res.Stats.NodeCount, "node")),
		StyleDim.Render(plural(res.Stats.EdgeCount, "edge")),
	}
	if n := len(res.Dropped); n > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf("%d dropped", n)))
	}
	if n := len(res.Collisions); n > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarn).Render(plural(n, "id collision")))
	}
	if res.CacheInfo.Hit {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorOK).Render("cached"))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorMuted).Render("fresh"))
	}
	fmt.Fprintln(statusOut, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(statusOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(statusOut) }

// newTable builds the rounded table used by projects, the picker and
// estimation sheets. cell styles body cells; nil leaves them plain.
func newTable(headers []string, rows [][]string, cell func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if cell == nil {
				return lipgloss.NewStyle()
			}
			return cell(row, col)
		})
}
