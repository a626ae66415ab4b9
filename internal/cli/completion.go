package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for archview. Project ids complete
from the configured source, so "archview diagram <TAB>" lists projects.

  bash:        source <(archview completion bash)
  zsh:         archview completion zsh > "${fpath[1]}/_archview"
  fish:        archview completion fish | source
  powershell:  archview completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.Out, true)
			case "zsh":
				return root.GenZshCompletion(c.Out)
			case "fish":
				return root.GenFishCompletion(c.Out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.Out)
			}
		},
	}
}

// completeProjectIDs completes the single project-id argument of diagram
// and estimation with "id<TAB>name" pairs. Failures complete nothing.
func (c *CLI) completeProjectIDs(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if c.cfg == nil {
		if err := c.loadConfig(); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
	from := ""
	if f := cmd.Flags().Lookup("from"); f != nil {
		from = f.Value.String()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	src, closeSrc, err := c.newSource(ctx, from, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer closeSrc()
	projects, err := src.Projects(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, prefix) {
			out = append(out, p.ID+"\t"+p.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
