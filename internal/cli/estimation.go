package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/archview/pkg/errors"
	"github.com/matzehuels/archview/pkg/estimation"
)

// estimationCommand creates the estimation command.
func (c *CLI) estimationCommand() *cobra.Command {
	var (
		save  string
		sheet string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "estimation <project-id>",
		Short: "Show a project's effort estimation",
		Long: `Download the effort and cost estimation spreadsheet the backend generated
for a project and print it as a table, followed by totals of its numeric
columns.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeProjectIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEstimation(cmd.Context(), args[0], sheet, save, limit)
		},
	}

	cmd.Flags().StringVarP(&save, "save", "o", "", "also save the .xlsx file")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to show (default: first)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many rows (0: all)")
	return cmd
}

func (c *CLI) runEstimation(ctx context.Context, id, sheetName, save string, limit int) error {
	client, err := c.newBackend(ctx)
	if err != nil {
		return err
	}

	spinner := startSpinner(ctx, "Downloading estimation...")
	prog := newProgress(c.Logger)
	est, err := client.Estimation(ctx, id)
	if err != nil {
		spinner.StopWithError("No estimation available")
		return err
	}
	var buf bytes.Buffer
	n, err := client.Download(ctx, est.URL, &buf)
	if err != nil {
		spinner.StopWithError("Download failed")
		return err
	}
	spinner.Stop()
	prog.done("Downloaded estimation", "bytes", n)

	if save != "" {
		if err := os.WriteFile(save, buf.Bytes(), 0o644); err != nil {
			return err
		}
		printFile(save)
	}

	wb, err := estimation.Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	s, err := pickSheet(wb, sheetName)
	if err != nil {
		return err
	}
	c.printSheet(s, limit)
	return nil
}

func pickSheet(wb *estimation.Workbook, name string) (*estimation.Sheet, error) {
	if name != "" {
		s, ok := wb.Sheet(name)
		if !ok {
			return nil, apperr.New(apperr.ErrCodeNotFound, "no sheet named %q", name)
		}
		return s, nil
	}
	if len(wb.Sheets) == 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "estimation workbook is empty")
	}
	return &wb.Sheets[0], nil
}

func (c *CLI) printSheet(s *estimation.Sheet, limit int) {
	rows := s.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	t := newTable(s.Header, rows, nil)

	printInfo("%s", StyleTitle.Render(s.Name))
	fmt.Fprintln(c.Out, t.Render())
	if len(rows) < len(s.Rows) {
		printDetail("showing %d of %d rows", len(rows), len(s.Rows))
	}

	for _, col := range s.NumericColumns() {
		sum, counted, err := s.Totals(col)
		if err != nil || counted == 0 {
			continue
		}
		printKeyValue(col, StyleNumber.Render(strconv.FormatFloat(sum, 'f', -1, 64)))
	}
}
