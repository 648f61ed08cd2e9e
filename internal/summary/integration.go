package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/workflow"
	"github.com/apicurio/workflow-results/pkg/api"
)

const (
	fileFailsafeSummary = "failsafe-summary.xml"
	dirSurefire         = "surefire-reports"
)

// TestFailure is one failing or erroring test case.
type TestFailure struct {
	Suite   string         `json:"suite"`
	Name    string         `json:"name"`
	Status  api.TestStatus `json:"status"`
	Message string         `json:"message,omitempty"`
}

// SuiteResult is the outcome of one TEST-*.xml report.
type SuiteResult struct {
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	Tests     int     `json:"tests"`
	Passed    int     `json:"passed"`
	Failures  int     `json:"failures"`
	Errors    int     `json:"errors"`
	Skipped   int     `json:"skipped"`
	Time      float64 `json:"time"`
}

func (s *SuiteResult) Failed() bool {
	return s.Failures > 0 || s.Errors > 0
}

// IntegrationResult is the outcome of a Maven Failsafe/Surefire job.
type IntegrationResult struct {
	Counts         Counts         `json:"counts"`
	Suites         []*SuiteResult `json:"suites,omitempty"`
	Failures       []*TestFailure `json:"failures,omitempty"`
	FailureMessage string         `json:"failureMessage,omitempty"`
	Timing         *DurationStats `json:"timing,omitempty"`
	ReportPath     string         `json:"reportPath,omitempty"`
	Status         Status         `json:"status"`
	ParseError     string         `json:"parseError,omitempty"`
	Missing        bool           `json:"missing,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// ParseIntegration reads failsafe-summary.xml and the TEST-*.xml reports of
// the job. Problems are recorded in the result and never returned.
func ParseIntegration(job *workflow.Job) *IntegrationResult {
	res := &IntegrationResult{Status: StatusUnknown}

	reportDirs := []string{}
	for _, d := range []string{workflow.DirFailsafe, dirSurefire} {
		if fi, err := os.Stat(job.TestResultsPath(d)); err == nil && fi.IsDir() {
			reportDirs = append(reportDirs, d)
		}
	}
	if len(reportDirs) > 0 {
		res.ReportPath = filepath.ToSlash(filepath.Join(job.Name, workflow.DirTestResults, reportDirs[0]))
	}

	var summary *api.FailsafeSummary
	summaryFile := job.TestResultsPath(workflow.DirFailsafe, fileFailsafeSummary)
	hasSummary := false
	var summaryErr error
	if _, err := os.Stat(summaryFile); err == nil {
		hasSummary = true
		summary, summaryErr = api.NewFailsafeSummary(summaryFile)
		if summaryErr != nil {
			log.Warnf("job %s: %v", job.Name, summaryErr)
			res.ParseError = summaryErr.Error()
		}
	}

	reports := []string{}
	for _, d := range reportDirs {
		matches, err := filepath.Glob(job.TestResultsPath(d, "TEST-*.xml"))
		if err != nil {
			continue
		}
		reports = append(reports, matches...)
	}
	sort.Strings(reports)

	sum := Counts{}
	parsed := 0
	malformed := []string{}
	durations := []float64{}
	for _, file := range reports {
		parser, err := api.NewJUnitXMLParser(file)
		if err != nil {
			msg := fmt.Sprintf("job %s: skipping malformed report %s: %v", job.Name, filepath.Base(file), err)
			log.Warn(msg)
			res.Warnings = append(res.Warnings, msg)
			malformed = append(malformed, filepath.Base(file))
			continue
		}
		parsed += 1
		suite := newSuiteResult(parser)
		res.Suites = append(res.Suites, suite)
		durations = append(durations, suite.Time)
		sum.add(newCounts(suite.Tests, suite.Failures, suite.Errors, suite.Skipped))
		for _, tc := range parser.Cases {
			if tc.Status != api.TestStatusFail && tc.Status != api.TestStatusError {
				continue
			}
			res.Failures = append(res.Failures, &TestFailure{
				Suite:   suite.ShortName,
				Name:    tc.Name,
				Status:  tc.Status,
				Message: tc.Message(),
			})
		}
	}
	res.Timing = NewDurationStats(durations)

	switch {
	case summaryErr != nil:
		// malformed summary: counters are not trusted.
		res.Counts = Counts{}
	case summary != nil:
		res.Counts = newCounts(summary.Completed, summary.Failures, summary.Errors, summary.Skipped)
		res.FailureMessage = strings.TrimSpace(summary.FailureMessage)
	case parsed > 0:
		res.Counts = sum
	case len(reports) > 0:
		res.ParseError = "no parseable test report found"
	default:
		res.Missing = !hasSummary
	}

	// a malformed report fails the job, counts from the other files are kept
	if len(malformed) > 0 {
		msg := fmt.Sprintf("%d malformed test report(s): %s", len(malformed), strings.Join(malformed, ", "))
		if res.ParseError == "" {
			res.ParseError = msg
		} else {
			res.ParseError += "; " + msg
		}
	}

	res.Status = integrationStatus(res)
	return res
}

func integrationStatus(res *IntegrationResult) Status {
	switch {
	case res.ParseError != "":
		return StatusError
	case res.Missing:
		return StatusUnknown
	case res.Counts.Failed > 0:
		return StatusFail
	case res.Counts.Total == 0:
		return StatusUnknown
	}
	return StatusPass
}

func newSuiteResult(p *api.JUnitXMLParser) *SuiteResult {
	s := &SuiteResult{
		Name:     p.Parsed.Name,
		Tests:    p.Parsed.Tests,
		Failures: p.Parsed.Failures,
		Errors:   p.Parsed.Errors,
		Skipped:  p.Parsed.Skipped,
		Time:     round(api.ParseSeconds(p.Parsed.Time)),
	}
	// reports without suite attributes
	if s.Tests == 0 && p.Counters.Total > 0 {
		s.Tests = p.Counters.Total
		s.Failures = p.Counters.Failures
		s.Errors = p.Counters.Errors
		s.Skipped = p.Counters.Skipped
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p.XMLFile), "TEST-"), ".xml")
	}
	s.ShortName = s.Name[strings.LastIndex(s.Name, ".")+1:]
	s.Passed = clamp(s.Tests - s.Failures - s.Errors - s.Skipped)
	return s
}
