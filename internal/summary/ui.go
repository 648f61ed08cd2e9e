package summary

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/workflow"
	"github.com/apicurio/workflow-results/pkg/api"
)

// Sources of the UI counters.
const (
	UISourceJSON = "results.json"
	UISourceHTML = "html-report"
)

// SpecResult is the outcome of one Playwright spec.
type SpecResult struct {
	Suite    string  `json:"suite"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
	Project  string  `json:"project,omitempty"`
}

// UIResult is the outcome of a Playwright job.
type UIResult struct {
	Counts     Counts        `json:"counts"`
	Flaky      int           `json:"flaky"`
	Duration   float64       `json:"duration"`
	StartTime  string        `json:"startTime,omitempty"`
	Specs      []*SpecResult `json:"specs,omitempty"`
	ReportPath string        `json:"reportPath,omitempty"`
	Source     string        `json:"source,omitempty"`
	Status     Status        `json:"status"`
	ParseError string        `json:"parseError,omitempty"`
	Missing    bool          `json:"missing,omitempty"`
	Note       string        `json:"note,omitempty"`
}

// ParseUI reads the Playwright JSON reporter output of the job. When the JSON
// file is absent the counters are scraped from the HTML report.
func ParseUI(job *workflow.Job) *UIResult {
	res := &UIResult{Status: StatusUnknown}

	htmlReport := job.TestResultsPath(workflow.FilePlaywrightWeb)
	if _, err := os.Stat(htmlReport); err == nil {
		res.ReportPath = filepath.ToSlash(filepath.Join(job.Name, workflow.DirTestResults, workflow.FilePlaywrightWeb))
	}

	jsonFile := job.TestResultsPath(workflow.FilePlaywrightRes)
	if _, err := os.Stat(jsonFile); err != nil {
		log.Infof("job %s: %s not found, falling back to the HTML report", job.Name, workflow.FilePlaywrightRes)
		parseUIFromHTML(job, res, htmlReport)
		return res
	}

	report, err := api.NewPlaywrightReport(jsonFile)
	if err != nil {
		log.Warnf("job %s: %v", job.Name, err)
		res.ParseError = err.Error()
		res.Status = StatusError
		return res
	}
	res.Source = UISourceJSON
	st := report.Stats
	// flaky tests passed on retry.
	res.Counts = newCounts(st.Expected+st.Unexpected+st.Skipped+st.Flaky, st.Unexpected, 0, st.Skipped)
	res.Flaky = st.Flaky
	res.Duration = round(st.Duration / 1000)
	res.StartTime = st.StartTime
	for _, spec := range report.Specs() {
		status := "passed"
		switch {
		case spec.Skipped:
			status = "skipped"
		case !spec.OK:
			status = "failed"
		}
		res.Specs = append(res.Specs, &SpecResult{
			Suite:    spec.Suite,
			Title:    spec.Title,
			Status:   status,
			Duration: round(spec.Duration),
			Project:  spec.Project,
		})
	}
	res.Status = uiStatus(res, report.Status)
	return res
}

func parseUIFromHTML(job *workflow.Job, res *UIResult, htmlReport string) {
	content, err := os.ReadFile(htmlReport)
	if err != nil {
		res.Missing = true
		res.Note = workflow.FilePlaywrightRes + " not found"
		return
	}
	counters, err := api.ParsePlaywrightHTMLCounters(content)
	if err != nil {
		log.Warnf("job %s: %v", job.Name, err)
		res.Missing = true
		res.Note = "no counters in the Playwright HTML report"
		return
	}
	res.Source = UISourceHTML
	res.Counts = newCounts(counters.Passed+counters.Failed+counters.Skipped+counters.Flaky, counters.Failed, 0, counters.Skipped)
	res.Flaky = counters.Flaky
	res.Status = uiStatus(res, "")
}

func uiStatus(res *UIResult, reported string) Status {
	switch strings.ToLower(reported) {
	case "passed":
		if res.Counts.Failed == 0 {
			return StatusPass
		}
		return StatusFail
	case "failed", "timedout", "interrupted":
		return StatusFail
	}
	switch {
	case res.Counts.Failed > 0:
		return StatusFail
	case res.Counts.Passed > 0:
		return StatusPass
	}
	return StatusUnknown
}
