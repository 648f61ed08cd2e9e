package api

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Playwright JSON reporter (results.json) data model. Only the fields
// consumed by the dashboards are mapped.
type PlaywrightReport struct {
	Status string             `json:"status,omitempty"`
	Stats  PlaywrightStats    `json:"stats"`
	Suites []*PlaywrightSuite `json:"suites"`
	Errors []PlaywrightError  `json:"errors,omitempty"`
}

type PlaywrightStats struct {
	StartTime  string  `json:"startTime"`
	Duration   float64 `json:"duration"`
	Expected   int     `json:"expected"`
	Unexpected int     `json:"unexpected"`
	Skipped    int     `json:"skipped"`
	Flaky      int     `json:"flaky"`
}

type PlaywrightSuite struct {
	Title  string             `json:"title"`
	File   string             `json:"file"`
	Specs  []*PlaywrightSpec  `json:"specs"`
	Suites []*PlaywrightSuite `json:"suites"`
}

type PlaywrightSpec struct {
	Title string            `json:"title"`
	OK    bool              `json:"ok"`
	File  string            `json:"file"`
	Tests []*PlaywrightTest `json:"tests"`
}

type PlaywrightTest struct {
	ProjectName    string              `json:"projectName"`
	Status         string              `json:"status"`
	ExpectedStatus string              `json:"expectedStatus"`
	Results        []*PlaywrightResult `json:"results"`
}

type PlaywrightResult struct {
	Status   string            `json:"status"`
	Duration float64           `json:"duration"`
	Retry    int               `json:"retry"`
	Errors   []PlaywrightError `json:"errors,omitempty"`
}

type PlaywrightError struct {
	Message string `json:"message"`
}

// PlaywrightSpecOutcome is a flattened view of one spec, with the titles of
// the enclosing suites joined as path.
type PlaywrightSpecOutcome struct {
	Suite    string
	Title    string
	OK       bool
	Skipped  bool
	Duration float64
	Project  string
}

// NewPlaywrightReport reads and decodes a Playwright results.json file.
func NewPlaywrightReport(jsonFile string) (*PlaywrightReport, error) {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON file: %w", err)
	}
	return ParsePlaywrightReport(data)
}

// ParsePlaywrightReport decodes the JSON reporter output.
func ParsePlaywrightReport(data []byte) (*PlaywrightReport, error) {
	report := &PlaywrightReport{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("error parsing playwright report: %w", err)
	}
	if report.Stats.Expected < 0 || report.Stats.Unexpected < 0 || report.Stats.Skipped < 0 || report.Stats.Flaky < 0 {
		return nil, fmt.Errorf("error parsing playwright report: negative stats")
	}
	return report, nil
}

// Specs walks the suite tree depth-first in report order.
func (pr *PlaywrightReport) Specs() []*PlaywrightSpecOutcome {
	outcomes := []*PlaywrightSpecOutcome{}
	var walk func(path []string, suites []*PlaywrightSuite)
	walk = func(path []string, suites []*PlaywrightSuite) {
		for _, suite := range suites {
			if suite == nil {
				continue
			}
			p := path
			if suite.Title != "" {
				p = append(append([]string{}, path...), suite.Title)
			}
			for _, spec := range suite.Specs {
				if spec == nil {
					continue
				}
				outcomes = append(outcomes, newSpecOutcome(strings.Join(p, " › "), spec))
			}
			walk(p, suite.Suites)
		}
	}
	walk([]string{}, pr.Suites)
	return outcomes
}

func newSpecOutcome(suite string, spec *PlaywrightSpec) *PlaywrightSpecOutcome {
	out := &PlaywrightSpecOutcome{
		Suite:   suite,
		Title:   spec.Title,
		OK:      spec.OK,
		Skipped: len(spec.Tests) > 0,
	}
	for _, test := range spec.Tests {
		if test == nil {
			continue
		}
		if test.Status != "skipped" {
			out.Skipped = false
		}
		if out.Project == "" {
			out.Project = test.ProjectName
		}
		for _, res := range test.Results {
			if res != nil {
				out.Duration += res.Duration
			}
		}
	}
	// milliseconds
	out.Duration = out.Duration / 1000
	return out
}

// PlaywrightHTMLCounters holds the counters rendered by the Playwright HTML
// reporter navigation bar: All, Passed, Failed, Flaky, Skipped.
type PlaywrightHTMLCounters struct {
	Total   int
	Passed  int
	Failed  int
	Flaky   int
	Skipped int
}

var rePlaywrightCounter = regexp.MustCompile(`counter[^>]*>(\d+)`)

// ParsePlaywrightHTMLCounters scrapes the counters from a Playwright HTML
// report. Reports embedding fewer than five counters are rejected.
func ParsePlaywrightHTMLCounters(content []byte) (*PlaywrightHTMLCounters, error) {
	matches := rePlaywrightCounter.FindAllSubmatch(content, 5)
	if len(matches) < 5 {
		return nil, fmt.Errorf("playwright html report: found %d counters, want 5", len(matches))
	}
	values := make([]int, 5)
	for i, m := range matches {
		v, err := strconv.Atoi(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("playwright html report: invalid counter %q: %w", m[1], err)
		}
		values[i] = v
	}
	return &PlaywrightHTMLCounters{
		Total:   values[0],
		Passed:  values[1],
		Failed:  values[2],
		Flaky:   values[3],
		Skipped: values[4],
	}, nil
}
