package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/archview/pkg/source"
)

// ProjectListModel is the bubbletea model behind "projects --pick".
// Projects without a generated diagram are dimmed but still selectable.
// Typing "/" starts a case-insensitive name filter.
type ProjectListModel struct {
	Projects []source.Project
	Cursor   int
	Selected *source.Project
	Height   int
	Offset   int

	Filter    string
	filtering bool
}

func NewProjectListModel(projects []source.Project) ProjectListModel {
	return ProjectListModel{Projects: projects, Height: 15}
}

func (m ProjectListModel) Init() tea.Cmd { return nil }

// visible returns the projects matching the current filter.
func (m ProjectListModel) visible() []source.Project {
	if m.Filter == "" {
		return m.Projects
	}
	f := strings.ToLower(m.Filter)
	var out []source.Project
	for _, p := range m.Projects {
		if strings.Contains(strings.ToLower(p.Name), f) {
			out = append(out, p)
		}
	}
	return out
}

func (m ProjectListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg), nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m ProjectListModel) updateFilter(msg tea.KeyMsg) ProjectListModel {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filter, m.filtering = "", false
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		if r := []rune(m.Filter); len(r) > 0 {
			m.Filter = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.Filter += string(msg.Runes)
	}
	m.Cursor, m.Offset = 0, 0
	return m
}

func (m ProjectListModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.visible()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "/":
		m.filtering = true
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			m.Offset = min(m.Offset, m.Cursor)
		}
	case "down", "j":
		if m.Cursor < len(items)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter":
		if len(items) == 0 {
			return m, nil
		}
		p := items[m.Cursor]
		m.Selected = &p
		return m, tea.Quit
	}
	return m, nil
}

func (m ProjectListModel) View() string {
	items := m.visible()
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Project") + "\n")
	switch {
	case m.filtering:
		b.WriteString(StyleHighlight.Render("/"+m.Filter+"▏") + StyleDim.Render("  ⏎ apply  esc clear"))
	case m.Filter != "":
		b.WriteString(StyleDim.Render(fmt.Sprintf("filter %q  ↑/↓ navigate  ⏎ select  / edit  q quit", m.Filter)))
	default:
		b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ select  / filter  q quit"))
	}
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(items))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		p := items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, p.Name, mark(p.HasDiagram()), mark(p.EffortEstimationURL != ""), formatRelativeTime(p.CreatedAt)})
	}

	t := newTable([]string{"", "Project", "Diagram", "Estimation", "Created"}, rows, func(row, col int) lipgloss.Style {
		idx := m.Offset + row
		if idx >= len(items) {
			return lipgloss.NewStyle()
		}
		s := lipgloss.NewStyle()
		if col == 4 {
			s = s.Foreground(colorDim)
		}
		hasDiagram := items[idx].HasDiagram()
		switch {
		case idx == m.Cursor && hasDiagram:
			return s.Foreground(colorOK).Bold(true)
		case idx == m.Cursor:
			return s.Foreground(colorMuted).Bold(true)
		case !hasDiagram:
			return s.Foreground(colorDim)
		}
		return s
	})

	b.WriteString(t.Render() + "\n\n")
	if len(items) == 0 {
		b.WriteString(StyleDim.Render("  no matching projects"))
	} else {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(items))))
	}
	return b.String()
}

// formatRelativeTime renders a project's creation time for the tables.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	switch d := time.Since(t); {
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
