package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Artifact directories and files produced by the test pipeline in each job.
const (
	DirTestResults    = "test-results"
	DirFailsafe       = "failsafe-reports"
	DirDASTResults    = "dast-results"
	DirPodLogs        = "pod-logs"
	FilePlaywrightRes = "results.json"
	FilePlaywrightWeb = "index.html"
)

// JobType tags how a job directory is parsed.
type JobType int

const (
	JobTypeUnknown JobType = iota
	JobTypeIntegration
	JobTypeUI
	JobTypeDAST
)

// JobTypes lists the known types in display order.
var JobTypes = []JobType{JobTypeIntegration, JobTypeUI, JobTypeDAST}

func (jt JobType) String() string {
	switch jt {
	case JobTypeIntegration:
		return "integration"
	case JobTypeUI:
		return "ui"
	case JobTypeDAST:
		return "dast"
	}
	return "unknown"
}

// Title is the human readable section name.
func (jt JobType) Title() string {
	switch jt {
	case JobTypeIntegration:
		return "Integration Tests"
	case JobTypeUI:
		return "UI Tests"
	case JobTypeDAST:
		return "Security Scans (DAST)"
	}
	return "Unknown"
}

func (jt JobType) MarshalText() ([]byte, error) {
	return []byte(jt.String()), nil
}

func (jt *JobType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "integration":
		*jt = JobTypeIntegration
	case "ui":
		*jt = JobTypeUI
	case "dast":
		*jt = JobTypeDAST
	case "unknown", "":
		*jt = JobTypeUnknown
	default:
		return fmt.Errorf("invalid job type %q", string(text))
	}
	return nil
}

// Job is one test configuration's output directory inside a run.
type Job struct {
	Name    string     `json:"name"`
	Path    string     `json:"-"`
	Type    JobType    `json:"type"`
	Config  ConfigInfo `json:"config"`
	PodLogs bool       `json:"podLogs"`
}

// TestResultsPath returns the path of the job's test-results directory.
func (j *Job) TestResultsPath(elem ...string) string {
	return filepath.Join(append([]string{j.Path, DirTestResults}, elem...)...)
}

// DiscoverJobs lists the immediate subdirectories of runDir in name order and
// classifies each one by its artifact markers. Unrecognized or unreadable
// entries are skipped, and a warning is returned for each of them.
func DiscoverJobs(runDir string) ([]*Job, []string, error) {
	info, err := os.Stat(runDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to read run directory %s", runDir)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("run path %s is not a directory", runDir)
	}
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to list run directory %s", runDir)
	}

	jobs := []*Job{}
	warnings := []string{}
	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		log.Warn(msg)
		warnings = append(warnings, msg)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(runDir, name)
		fi, err := os.Stat(path)
		if err != nil {
			warn("skipping entry %s: %v", name, err)
			continue
		}
		if !fi.IsDir() {
			continue
		}
		if _, err := os.ReadDir(path); err != nil {
			warn("skipping job %s: %v", name, err)
			continue
		}
		job := &Job{
			Name:    name,
			Path:    path,
			Type:    ClassifyJob(path, name),
			Config:  ParseConfigInfo(name),
			PodLogs: isDir(filepath.Join(path, DirPodLogs)),
		}
		if job.Type == JobTypeUnknown {
			warn("skipping job %s: no known result artifacts", name)
			continue
		}
		log.Debugf("Discovered job %s (%s)", name, job.Type)
		jobs = append(jobs, job)
	}
	return jobs, warnings, nil
}

// ClassifyJob selects the job type by its markers, first match wins.
func ClassifyJob(path, name string) JobType {
	results := filepath.Join(path, DirTestResults)
	lname := strings.ToLower(name)
	switch {
	case isDir(filepath.Join(results, DirFailsafe)):
		return JobTypeIntegration
	case exists(filepath.Join(results, FilePlaywrightRes)), exists(filepath.Join(results, FilePlaywrightWeb)):
		return JobTypeUI
	case isDir(results) && strings.HasSuffix(lname, "uitests"):
		return JobTypeUI
	case isDir(results) && strings.HasSuffix(lname, "integrationtests"):
		return JobTypeIntegration
	case isDir(filepath.Join(path, DirDASTResults)):
		return JobTypeDAST
	}
	return JobTypeUnknown
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
