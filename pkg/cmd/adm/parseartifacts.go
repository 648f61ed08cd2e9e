package adm

import (
	"fmt"
	"io"

	table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/apicurio/workflow-results/pkg/api"
)

var parseSarifCmd = &cobra.Command{
	Use:     "parse-sarif <file.sarif>",
	Example: "wfr adm parse-sarif job/dast-results/api/zap/result.sarif",
	Short:   "Parse a SARIF file and print the findings by severity.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parseSarif(cmd.OutOrStdout(), args[0])
	},
}

var parsePlaywrightCmd = &cobra.Command{
	Use:     "parse-playwright <results.json>",
	Example: "wfr adm parse-playwright job/test-results/results.json",
	Short:   "Parse a Playwright JSON report and print the spec outcomes.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parsePlaywright(cmd.OutOrStdout(), args[0])
	},
}

func parseSarif(w io.Writer, sarifFile string) error {
	sl, err := api.NewSarifLog(sarifFile)
	if err != nil {
		return fmt.Errorf("error parsing SARIF file: %v", err)
	}
	results := sl.Results()
	counts := sl.CountBySeverity()

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "- File: %s\n", sarifFile)
	fmt.Fprintf(w, "- Version: %s\n", sl.Version)
	fmt.Fprintf(w, "- Runs: %d\n", len(sl.Runs))
	fmt.Fprintf(w, "- Findings: %d\n", len(results))
	for _, lvl := range api.SarifLevels {
		fmt.Fprintf(w, "- %s: %d\n", lvl, counts[lvl])
	}
	if len(results) == 0 {
		return nil
	}

	tb := table.NewWriter()
	tb.SetOutputMirror(w)
	tb.AppendHeader(table.Row{"Severity", "Rule", "Message", "Location"})
	for _, r := range results {
		tb.AppendRow(table.Row{r.Severity(), r.RuleID, r.Message.Text, r.Location()})
	}
	tb.Render()
	return nil
}

func parsePlaywright(w io.Writer, jsonFile string) error {
	report, err := api.NewPlaywrightReport(jsonFile)
	if err != nil {
		return fmt.Errorf("error parsing Playwright report: %v", err)
	}
	st := report.Stats

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "- File: %s\n", jsonFile)
	fmt.Fprintf(w, "- Status: %s\n", report.Status)
	fmt.Fprintf(w, "- Expected: %d\n", st.Expected)
	fmt.Fprintf(w, "- Unexpected: %d\n", st.Unexpected)
	fmt.Fprintf(w, "- Skipped: %d\n", st.Skipped)
	fmt.Fprintf(w, "- Flaky: %d\n", st.Flaky)
	fmt.Fprintf(w, "- Duration: %.1fs\n", st.Duration/1000)

	specs := report.Specs()
	if len(specs) == 0 {
		return nil
	}
	tb := table.NewWriter()
	tb.SetOutputMirror(w)
	tb.AppendHeader(table.Row{"Suite", "Spec", "Project", "OK", "Duration"})
	for _, s := range specs {
		tb.AppendRow(table.Row{s.Suite, s.Title, s.Project, s.OK, fmt.Sprintf("%.2fs", s.Duration)})
	}
	tb.Render()
	return nil
}
