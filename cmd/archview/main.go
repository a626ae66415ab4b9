// Command archview converts architecture diagrams from the
// requirements-analysis backend into Mermaid and rendered images.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archview/internal/cli"
	apperr "github.com/matzehuels/archview/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	if code := apperr.GetCode(err); code != "" {
		fmt.Fprintf(os.Stderr, "error: %s (%s)\n", apperr.UserMessage(err), code)
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode is 2 for requests the user can fix (bad input, unknown project,
// rejected cookie), 3 for backend or renderer failures and 1 otherwise.
func exitCode(err error) int {
	switch apperr.HTTPStatus(err) / 100 {
	case 4:
		return 2
	case 5:
		if apperr.GetCode(err) != "" && apperr.GetCode(err) != apperr.ErrCodeInternal {
			return 3
		}
	}
	return 1
}

func run(ctx context.Context) error {
	verbose, _ := strconv.ParseBool(os.Getenv("ARCHVIEW_VERBOSE"))

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "enable debug logging (ARCHVIEW_VERBOSE)")

	// The level must be set before the root pre-run logs config loading.
	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if preRun != nil {
			return preRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
