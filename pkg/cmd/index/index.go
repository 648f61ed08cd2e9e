package index

import (
	"fmt"
	"io"
	"os"

	table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/apicurio/workflow-results/internal/report"
)

type Input struct {
	root     string
	noTrends bool
	quiet    bool
}

var iInput Input

func NewCmdIndex() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "index [results-root]",
		Example: "wfr index results/",
		Short:   "Build the root index.html listing every workflow run.",
		Long: `Build the root index page of the dashboard, newest run first.
Each run is read from its summary.json, or summarized from its job directories when absent.
The files index.html, index.json and trends.html are written into the results root,
the current directory when not set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iInput.root = "."
			if len(args) > 0 {
				iInput.root = args[0]
			}
			fi, err := os.Stat(iInput.root)
			if err != nil {
				return errors.Wrap(err, "invalid results root")
			}
			if !fi.IsDir() {
				return fmt.Errorf("results root %s is not a directory", iInput.root)
			}
			return buildIndex(cmd.OutOrStdout(), &iInput)
		},
	}

	cmd.Flags().BoolVar(&iInput.noTrends, "no-trends", false, "Do not generate the trends.html chart page.")
	cmd.Flags().BoolVarP(&iInput.quiet, "quiet", "q", false, "Do not print the runs table.")

	return cmd
}

func buildIndex(w io.Writer, input *Input) error {
	entries, err := report.BuildIndex(input.root)
	if err != nil {
		return err
	}
	if err := report.SaveIndex(input.root, entries, !input.noTrends); err != nil {
		return errors.Wrap(err, "unable to save index")
	}
	if !input.quiet {
		showIndexTable(w, entries)
	}
	return nil
}

func showIndexTable(w io.Writer, entries []*report.IndexEntry) {
	tb := table.NewWriter()
	tb.SetOutputMirror(w)
	tb.AppendHeader(table.Row{"Run", "Date", "Jobs (I/U/D)", "Integration", "UI", "Findings", "Status", "Note"})
	for _, e := range entries {
		tb.AppendRow(table.Row{
			e.Name,
			e.Date,
			fmt.Sprintf("%d/%d/%d", e.IntegrationJobs, e.UIJobs, e.DASTJobs),
			fmt.Sprintf("%d/%d", e.IntegrationPassed, e.IntegrationTotal),
			fmt.Sprintf("%d/%d", e.UIPassed, e.UITotal),
			e.Findings,
			e.Badge,
			e.Note,
		})
	}
	tb.AppendFooter(table.Row{"Total", fmt.Sprintf("%d runs", len(entries))})
	tb.Render()
}
