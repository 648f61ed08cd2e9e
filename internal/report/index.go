package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/metrics"
	"github.com/apicurio/workflow-results/internal/summary"
	"github.com/apicurio/workflow-results/internal/workflow"
)

const (
	FileNameIndexJSON  = "index.json"
	FileNameTrendsHTML = "trends.html"
)

// Badge is the overall status shown for a run in the index.
type Badge string

const (
	BadgePass    Badge = "PASS"
	BadgeFail    Badge = "FAIL"
	BadgePartial Badge = "PARTIAL"
	BadgeUnknown Badge = "UNKNOWN"
)

// Source tells where the figures of an index entry come from.
const (
	SourceSummaryJSON = "summary.json"
	SourceArtifacts   = "artifacts"
	SourceNone        = "none"
)

// IndexEntry is one row of the root index.
type IndexEntry struct {
	Name              string         `json:"name"`
	Date              string         `json:"date"`
	RunID             string         `json:"runId"`
	IntegrationJobs   int            `json:"integrationJobs"`
	UIJobs            int            `json:"uiJobs"`
	DASTJobs          int            `json:"dastJobs"`
	IntegrationPassed int            `json:"integrationPassed"`
	IntegrationTotal  int            `json:"integrationTotal"`
	UIPassed          int            `json:"uiPassed"`
	UITotal           int            `json:"uiTotal"`
	Findings          int            `json:"findings"`
	Status            summary.Status `json:"status"`
	Badge             Badge          `json:"badge"`
	Note              string         `json:"note,omitempty"`
	Link              string         `json:"link"`
	Source            string         `json:"source"`
}

// BadgeFor applies the badge rule to a loaded summary.
func BadgeFor(rs *summary.RunSummary) Badge {
	if rs == nil {
		return BadgeUnknown
	}
	switch rs.Status {
	case summary.StatusFail, summary.StatusError:
		return BadgeFail
	case summary.StatusPass:
		if rs.UnknownJobs > 0 || rs.DAST.Findings > 0 {
			return BadgePartial
		}
		return BadgePass
	}
	return BadgeUnknown
}

// NewIndexEntry builds the row of a run. A nil summary or a load error makes
// an UNKNOWN row carrying the error as note.
func NewIndexEntry(run *workflow.Run, rs *summary.RunSummary, source string, loadErr error) *IndexEntry {
	e := &IndexEntry{
		Name:   run.Name,
		Date:   run.DateString(),
		RunID:  run.ID,
		Status: summary.StatusUnknown,
		Badge:  BadgeUnknown,
		Link:   runLink(run),
		Source: source,
	}
	if loadErr != nil || rs == nil {
		e.Source = SourceNone
		if loadErr != nil {
			e.Note = loadErr.Error()
		}
		return e
	}
	e.IntegrationJobs = rs.Integration.Jobs
	e.UIJobs = rs.UI.Jobs
	e.DASTJobs = rs.DAST.Jobs
	e.IntegrationPassed = rs.Integration.Counts.Passed
	e.IntegrationTotal = rs.Integration.Counts.Total
	e.UIPassed = rs.UI.Counts.Passed
	e.UITotal = rs.UI.Counts.Total
	e.Findings = rs.DAST.Findings
	e.Status = rs.Status
	e.Badge = BadgeFor(rs)
	switch {
	case len(rs.Jobs) == 0:
		e.Note = "no jobs found"
	case rs.ParseFailures > 0:
		e.Note = pluralize(rs.ParseFailures, "parse failure", "parse failures")
	case rs.UnknownJobs > 0:
		e.Note = pluralize(rs.UnknownJobs, "job without results", "jobs without results")
	}
	return e
}

// PassRate returns the percentage of passed tests over integration and UI.
func (e *IndexEntry) PassRate() float64 {
	total := e.IntegrationTotal + e.UITotal
	if total == 0 {
		return 0
	}
	return float64(int(float64(e.IntegrationPassed+e.UIPassed)/float64(total)*1000+0.5)) / 10
}

// runLink points to the detail page when it exists, to the run directory
// otherwise.
func runLink(run *workflow.Run) string {
	if run.Path != "" {
		if _, err := os.Stat(filepath.Join(run.Path, FileNameIndexHTML)); err == nil {
			return run.Name + "/" + FileNameIndexHTML
		}
	}
	return run.Name + "/"
}

// LoadOrSummarize returns the summary of a run from its summary.json, or
// summarizes the job directories when the file is absent or unusable.
func LoadOrSummarize(run *workflow.Run) (*summary.RunSummary, string, error) {
	file := filepath.Join(run.Path, FileNameSummaryJSON)
	data, err := os.ReadFile(file)
	if err == nil {
		rs, perr := LoadSummary(data)
		if perr == nil {
			rs.Run = run
			return rs, SourceSummaryJSON, nil
		}
		log.Warnf("run %s: ignoring %s: %v", run.Name, FileNameSummaryJSON, perr)
	} else if !os.IsNotExist(err) {
		log.Warnf("run %s: unable to read %s: %v", run.Name, FileNameSummaryJSON, err)
	}

	rs, err := summary.SummarizeRun(run.Path)
	if err != nil {
		return nil, SourceNone, err
	}
	rs.Run = run
	return rs, SourceArtifacts, nil
}

// BuildIndex lists the runs under root and builds their index entries, newest
// first. Only an unusable root is returned as error.
func BuildIndex(root string) ([]*IndexEntry, error) {
	timers := metrics.NewTimers()
	defer timers.LogDebug()

	timers.Set("list")
	runs, err := workflow.ListRuns(root)
	if err != nil {
		return nil, err
	}

	timers.Set("load")
	entries := make([]*IndexEntry, 0, len(runs))
	for _, run := range runs {
		log.Infof("Processing run: %s", run.Name)
		rs, source, err := LoadOrSummarize(run)
		if err != nil {
			log.Warnf("run %s: %v", run.Name, err)
		}
		entries = append(entries, NewIndexEntry(run, rs, source, err))
	}
	timers.Stop()
	return entries, nil
}

// Badges lists the badges in display order.
var Badges = []Badge{BadgePass, BadgePartial, BadgeFail, BadgeUnknown}

type badgeTotal struct {
	Badge Badge
	Count int
}

type indexPage struct {
	Entries []*IndexEntry
	Totals  []badgeTotal
	Trends  bool
}

// RenderIndex renders the root index page, rows in the given order.
func RenderIndex(entries []*IndexEntry, withTrends bool) ([]byte, error) {
	page := &indexPage{
		Entries: entries,
		Trends:  withTrends && len(entries) > 0,
	}
	for _, b := range Badges {
		total := badgeTotal{Badge: b}
		for _, e := range entries {
			if e.Badge == b {
				total.Count += 1
			}
		}
		page.Totals = append(page.Totals, total)
	}
	return renderTemplate(TemplateIndexPage, page)
}

// MarshalIndex encodes the entries for downstream automation.
func MarshalIndex(entries []*IndexEntry) ([]byte, error) {
	if entries == nil {
		entries = []*IndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "unable to process index data")
	}
	return append(data, '\n'), nil
}

// SaveIndex writes index.html, index.json and, when enabled, trends.html
// into root.
func SaveIndex(root string, entries []*IndexEntry, withTrends bool) error {
	page, err := RenderIndex(entries, withTrends)
	if err != nil {
		return err
	}
	data, err := MarshalIndex(entries)
	if err != nil {
		return err
	}
	if withTrends && len(entries) > 0 {
		chart, err := RenderTrends(entries)
		if err != nil {
			return err
		}
		if err := WriteFileAtomic(filepath.Join(root, FileNameTrendsHTML), chart, 0644); err != nil {
			return err
		}
	}
	if err := WriteFileAtomic(filepath.Join(root, FileNameIndexJSON), data, 0644); err != nil {
		return err
	}
	htmlFile := filepath.Join(root, FileNameIndexHTML)
	if err := WriteFileAtomic(htmlFile, page, 0644); err != nil {
		return err
	}
	log.Infof("Index page written to %s (%d runs)", htmlFile, len(entries))
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
