package adm

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apicurio/workflow-results/pkg/api"
)

type parseJUnitInput struct {
	skipFailed  bool
	skipPassed  bool
	skipSkipped bool
}

var parseJUnitArgs parseJUnitInput
var parseJUnitCmd = &cobra.Command{
	Use:     "parse-junit <TEST-*.xml>",
	Example: "wfr adm parse-junit job/test-results/failsafe-reports/TEST-io.apicurio.tests.SmokeIT.xml",
	Short:   "Parse a Surefire/Failsafe JUnit report.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parseJUnit(cmd.OutOrStdout(), args[0], &parseJUnitArgs)
	},
}

func init() {
	parseJUnitCmd.Flags().BoolVar(&parseJUnitArgs.skipFailed, "skip-failed", false, "Skip printing on stdout the failed test names.")
	parseJUnitCmd.Flags().BoolVar(&parseJUnitArgs.skipPassed, "skip-passed", false, "Skip printing on stdout the passed test names.")
	parseJUnitCmd.Flags().BoolVar(&parseJUnitArgs.skipSkipped, "skip-skipped", false, "Skip printing on stdout the skipped test names.")
}

func parseJUnit(w io.Writer, junitFile string, input *parseJUnitInput) error {
	parser, err := api.NewJUnitXMLParser(junitFile)
	if err != nil {
		return fmt.Errorf("error parsing JUnit file: %v", err)
	}

	// Printing summary
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "- File: %s\n", parser.XMLFile)
	fmt.Fprintf(w, "- Total: %d\n", parser.Counters.Total)
	fmt.Fprintf(w, "- Pass: %d\n", parser.Counters.Pass)
	fmt.Fprintf(w, "- Skipped: %d\n", parser.Counters.Skipped)
	fmt.Fprintf(w, "- Failures: %d\n", parser.Counters.Failures)
	fmt.Fprintf(w, "- Errors: %d\n", parser.Counters.Errors)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "JUnit Attributes:")
	fmt.Fprintf(w, "- Name: %s\n", parser.Parsed.Name)
	fmt.Fprintf(w, "- Tests: %d\n", parser.Parsed.Tests)
	fmt.Fprintf(w, "- Skipped: %d\n", parser.Parsed.Skipped)
	fmt.Fprintf(w, "- Failures: %d\n", parser.Parsed.Failures)
	fmt.Fprintf(w, "- Errors: %d\n", parser.Parsed.Errors)
	fmt.Fprintf(w, "- Time: %s\n", parser.Parsed.Time)

	passed := []string{}
	skipped := []string{}
	for _, testcase := range parser.Cases {
		switch testcase.Status {
		case api.TestStatusPass:
			passed = append(passed, testcase.Name)
		case api.TestStatusSkipped:
			skipped = append(skipped, testcase.Name)
		}
	}

	if !input.skipPassed {
		fmt.Fprintf(w, "\n#> Passed tests (%d): \n%s\n", len(passed), strings.Join(passed, "\n"))
	}
	if !input.skipFailed {
		fmt.Fprintf(w, "\n#> Failed tests (%d): \n%s\n", len(parser.Failures), strings.Join(parser.Failures, "\n"))
	}
	if !input.skipSkipped {
		fmt.Fprintf(w, "\n#> Skipped tests (%d): \n%s\n", len(skipped), strings.Join(skipped, "\n"))
	}
	return nil
}
