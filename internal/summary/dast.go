package summary

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/workflow"
	"github.com/apicurio/workflow-results/pkg/api"
)

const (
	fileScanStatus = "scan-status.txt"
	fileZAPReport  = "zap-report.html"
	extSarif       = ".sarif"
)

// Scan status markers.
const (
	ScanCompleted = "completed"
	ScanNoResults = "no_results"
	ScanUnknown   = "unknown"
)

// Finding is one SARIF result.
type Finding struct {
	Scan     string `json:"scan"`
	RuleID   string `json:"ruleId"`
	Severity string `json:"severity"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location,omitempty"`
}

// SeverityCount is a severity counter in display order.
type SeverityCount struct {
	Severity string
	Count    int
}

// ScanResult is one scan directory of dast-results.
type ScanResult struct {
	Name       string         `json:"name"`
	Findings   int            `json:"findings"`
	Severity   map[string]int `json:"severity,omitempty"`
	SarifFiles int            `json:"sarifFiles"`
	Status     string         `json:"status"`
	StatusText string         `json:"statusText,omitempty"`
	ZAPReport  string         `json:"zapReport,omitempty"`
}

// DASTResult is the outcome of a security scan job.
type DASTResult struct {
	Scans        []*ScanResult  `json:"scans,omitempty"`
	Findings     []*Finding     `json:"findings,omitempty"`
	Total        int            `json:"total"`
	Severity     map[string]int `json:"severity,omitempty"`
	CorruptFiles []string       `json:"corruptFiles,omitempty"`
	Status       Status         `json:"status"`
	ParseError   string         `json:"parseError,omitempty"`
	Missing      bool           `json:"missing,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// SeverityCounts returns the counters ordered from the most severe level.
func (dr *DASTResult) SeverityCounts() []SeverityCount {
	return orderedSeverity(dr.Severity)
}

func (sr *ScanResult) SeverityCounts() []SeverityCount {
	return orderedSeverity(sr.Severity)
}

func orderedSeverity(m map[string]int) []SeverityCount {
	out := []SeverityCount{}
	seen := map[string]bool{}
	for _, lvl := range api.SarifLevels {
		seen[lvl] = true
		if m[lvl] > 0 {
			out = append(out, SeverityCount{Severity: lvl, Count: m[lvl]})
		}
	}
	others := []string{}
	for k := range m {
		if !seen[k] {
			others = append(others, k)
		}
	}
	sort.Strings(others)
	for _, k := range others {
		out = append(out, SeverityCount{Severity: k, Count: m[k]})
	}
	return out
}

// ParseDAST reads every scan under dast-results. A corrupt SARIF file is
// excluded from the counters and recorded as a parse failure, the remaining
// files are still processed.
func ParseDAST(job *workflow.Job) *DASTResult {
	res := &DASTResult{Status: StatusUnknown, Severity: map[string]int{}}
	dastDir := filepath.Join(job.Path, workflow.DirDASTResults)

	entries, err := os.ReadDir(dastDir)
	if err != nil {
		log.Warnf("job %s: %v", job.Name, err)
		res.Missing = true
		return res
	}

	rootFiles := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), extSarif) {
			rootFiles = append(rootFiles, filepath.Join(dastDir, e.Name()))
		}
	}
	if len(rootFiles) > 0 {
		scan := &ScanResult{Name: workflow.DirDASTResults}
		parseScan(job, res, scan, dastDir, rootFiles)
		res.Scans = append(res.Scans, scan)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		scanDir := filepath.Join(dastDir, e.Name())
		scan := &ScanResult{Name: e.Name()}
		files, zap := walkScan(scanDir)
		if zap != "" {
			scan.ZAPReport = relLink(job, zap)
		}
		parseScan(job, res, scan, scanDir, files)
		res.Scans = append(res.Scans, scan)
	}

	if len(res.CorruptFiles) > 0 {
		res.ParseError = fmt.Sprintf("%d corrupt SARIF file(s): %s", len(res.CorruptFiles), strings.Join(res.CorruptFiles, ", "))
	}
	switch {
	case res.ParseError != "":
		res.Status = StatusError
	case len(res.Scans) == 0:
		res.Missing = true
		res.Status = StatusUnknown
	default:
		res.Status = StatusPass
	}
	return res
}

// walkScan returns the SARIF files under a scan directory and the first ZAP
// HTML report found, both in lexical order.
func walkScan(scanDir string) ([]string, string) {
	files := []string{}
	zap := ""
	_ = filepath.WalkDir(scanDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("unable to read %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(d.Name(), extSarif):
			files = append(files, path)
		case d.Name() == fileZAPReport && zap == "":
			zap = path
		}
		return nil
	})
	return files, zap
}

func parseScan(job *workflow.Job, res *DASTResult, scan *ScanResult, scanDir string, files []string) {
	scan.Status = ScanUnknown
	scan.Severity = map[string]int{}
	for _, file := range files {
		rel := relLink(job, file)
		sl, err := api.NewSarifLog(file)
		if err != nil {
			msg := fmt.Sprintf("job %s: corrupt SARIF file %s: %v", job.Name, rel, err)
			log.Warn(msg)
			res.Warnings = append(res.Warnings, msg)
			res.CorruptFiles = append(res.CorruptFiles, rel)
			continue
		}
		scan.SarifFiles += 1
		scan.Status = ScanCompleted
		for _, r := range sl.Results() {
			sev := r.Severity()
			scan.Severity[sev] += 1
			res.Severity[sev] += 1
			scan.Findings += 1
			res.Total += 1
			res.Findings = append(res.Findings, &Finding{
				Scan:     scan.Name,
				RuleID:   r.RuleID,
				Severity: sev,
				Message:  firstLine(r.Message.Text),
				Location: r.Location(),
			})
		}
	}

	content, err := os.ReadFile(filepath.Join(scanDir, fileScanStatus))
	if err != nil {
		return
	}
	scan.StatusText = firstLine(string(content))
	if strings.Contains(strings.ToLower(string(content)), "no results") {
		scan.Status = ScanNoResults
	}
}

// relLink returns a slash separated path relative to the run directory.
func relLink(job *workflow.Job, path string) string {
	rel, err := filepath.Rel(job.Path, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(filepath.Join(job.Name, rel))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}
