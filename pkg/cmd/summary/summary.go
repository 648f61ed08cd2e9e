package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/apicurio/workflow-results/internal/report"
	rsummary "github.com/apicurio/workflow-results/internal/summary"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type Input struct {
	runDir   string
	output   string
	saveXLSX bool
	noSave   bool
}

var iInput Input

func NewCmdSummary() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summary <run-dir>",
		Example: "wfr summary results/2025-08-06-2",
		Short:   "Summarize the jobs of one workflow run into its index.html.",
		Long: `Summarize the test artifacts of every job found in a workflow run directory.
The summary page index.html and the summary.json artifact are written into the run directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iInput.runDir = args[0]
			if err := checkFlags(&iInput); err != nil {
				return err
			}
			return processRun(cmd.OutOrStdout(), &iInput)
		},
	}

	cmd.Flags().StringVarP(&iInput.output, "output", "o", OutputTable,
		"Console output format: table, json or yaml.")
	cmd.Flags().BoolVar(&iInput.saveXLSX, "save-xlsx", false,
		"Save the failures index spreadsheet failures-index.xlsx into the run directory.")
	cmd.Flags().BoolVar(&iInput.noSave, "no-save", false,
		"Do not write any file, only print the summary.")

	return cmd
}

func checkFlags(input *Input) error {
	switch input.output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q, valid values: table, json, yaml", input.output)
	}
	fi, err := os.Stat(input.runDir)
	if err != nil {
		return errors.Wrap(err, "invalid run directory")
	}
	if !fi.IsDir() {
		return fmt.Errorf("run path %s is not a directory", input.runDir)
	}
	return nil
}

func processRun(w io.Writer, input *Input) error {
	rs, err := rsummary.SummarizeRun(input.runDir)
	if err != nil {
		return err
	}

	if !input.noSave {
		if err := report.SaveSummary(input.runDir, rs); err != nil {
			return errors.Wrap(err, "unable to save summary")
		}
		if input.saveXLSX {
			if err := report.SaveFailuresSheet(input.runDir, rs); err != nil {
				return errors.Wrap(err, "unable to save failures index")
			}
		}
	}

	return printSummary(w, rs, input.output)
}

func printSummary(w io.Writer, rs *rsummary.RunSummary, output string) error {
	switch output {
	case OutputJSON:
		data, err := report.MarshalSummary(rs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case OutputYAML:
		data, err := marshalYAML(rs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	showSummaryTable(w, rs)
	return nil
}

// marshalYAML encodes the summary as YAML keeping the JSON field names.
func marshalYAML(rs *rsummary.RunSummary) ([]byte, error) {
	data, err := json.Marshal(rs)
	if err != nil {
		return nil, errors.Wrap(err, "unable to process summary data")
	}
	doc := yaml.MapSlice{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to convert summary data")
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode summary data")
	}
	return out, nil
}

func showSummaryTable(w io.Writer, rs *rsummary.RunSummary) {
	tb := table.NewWriter()
	tb.SetOutputMirror(w)
	tb.SetTitle(fmt.Sprintf("Run %s (%s): %s", rs.Run.Name, rs.Run.DateString(), rs.Status))
	tb.AppendHeader(table.Row{"Job", "Type", "Status", "Total", "Passed", "Failed", "Skipped", "Findings"})
	for _, jr := range rs.Jobs {
		c := jr.Counts()
		findings := 0
		if jr.DAST != nil {
			findings = jr.DAST.Total
		}
		name := jr.Job.Name
		if jr.Flagged() {
			name += " (!)"
		}
		tb.AppendRow(table.Row{name, jr.Job.Type, jr.Status(), c.Total, c.Passed, c.Failed, c.Skipped, findings})
	}
	tb.AppendFooter(table.Row{
		"Total", fmt.Sprintf("%d jobs", len(rs.Jobs)), rs.Status,
		rs.Integration.Counts.Total + rs.UI.Counts.Total,
		rs.Integration.Counts.Passed + rs.UI.Counts.Passed,
		rs.Integration.Counts.Failed + rs.UI.Counts.Failed,
		rs.Integration.Counts.Skipped + rs.UI.Counts.Skipped,
		rs.DAST.Findings,
	})
	tb.Render()

	if len(rs.Warnings) > 0 {
		log.Warnf("%d warnings found while processing the run, see the summary page footer", len(rs.Warnings))
	}
}
