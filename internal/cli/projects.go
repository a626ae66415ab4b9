package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/pkg/source"
	"github.com/matzehuels/archview/pkg/source/local"
)

// projectsCommand creates the projects command.
func (c *CLI) projectsCommand() *cobra.Command {
	var (
		from    string
		save    string
		pick    bool
		asJSON  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Long: `List the projects visible to the configured session, newest first.

--pick opens an interactive picker and prints the commands for the chosen
project. --save stores the list for offline use with --from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := c.fetchProjects(ctx, from, refresh)
			if err != nil {
				return err
			}
			if save != "" {
				if err := local.Save(save, projects); err != nil {
					return err
				}
				printSuccess("Saved %d projects", len(projects))
				printFile(save)
				return nil
			}
			switch {
			case asJSON:
				enc := json.NewEncoder(c.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(projects)
			case pick:
				return c.pickProject(projects)
			default:
				c.printProjects(projects)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "read projects from a saved list instead of the backend")
	cmd.Flags().StringVar(&save, "save", "", "save the project list to a file")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a project interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print projects as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached responses")
	cmd.MarkFlagsMutuallyExclusive("pick", "json", "save")
	return cmd
}

func (c *CLI) fetchProjects(ctx context.Context, from string, refresh bool) ([]source.Project, error) {
	src, closeSrc, err := c.newSource(ctx, from, refresh)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	spinner := startSpinner(ctx, "Fetching projects...")
	projects, err := src.Projects(ctx)
	if err != nil {
		spinner.StopWithError("Could not list projects")
		return nil, err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Fetched %d projects", len(projects)))

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (c *CLI) printProjects(projects []source.Project) {
	if len(projects) == 0 {
		printInfo("No projects")
		return
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.Name, p.ID, mark(p.HasDiagram()), mark(p.EffortEstimationURL != ""), formatRelativeTime(p.CreatedAt)})
	}
	t := newTable([]string{"Name", "ID", "Diagram", "Estimation", "Created"}, rows, func(_, col int) lipgloss.Style {
		if col == 1 || col == 4 {
			return StyleDim
		}
		return lipgloss.NewStyle()
	})
	fmt.Fprintln(c.Out, t.Render())
}

func (c *CLI) pickProject(projects []source.Project) error {
	if len(projects) == 0 {
		printInfo("No projects")
		return nil
	}
	final, err := tea.NewProgram(NewProjectListModel(projects)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(ProjectListModel)
	if !ok || m.Selected == nil {
		return nil
	}

	p := m.Selected
	printSuccess("%s", StyleTitle.Render(p.Name))
	printKeyValue("ID", p.ID)
	printKeyValue("Created", p.CreatedAt.Format("Jan 2, 2006 15:04"))
	if len(p.Requirements) > 0 {
		printKeyValue("Requirements", fmt.Sprintf("%d", len(p.Requirements)))
	}
	printNewline()
	if p.HasDiagram() {
		printNextStep("Convert its diagram", "archview diagram "+p.ID)
	}
	if p.EffortEstimationURL != "" {
		printNextStep("Show its estimation", "archview estimation "+p.ID)
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return iconSuccess
	}
	return "—"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
