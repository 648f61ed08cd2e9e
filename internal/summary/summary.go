package summary

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/metrics"
	"github.com/apicurio/workflow-results/internal/workflow"
)

// TypeSummary aggregates the jobs of one type.
type TypeSummary struct {
	Jobs          int            `json:"jobs"`
	Counts        Counts         `json:"counts"`
	Flaky         int            `json:"flaky,omitempty"`
	Findings      int            `json:"findings,omitempty"`
	Severity      map[string]int `json:"severity,omitempty"`
	FailedJobs    int            `json:"failedJobs"`
	UnknownJobs   int            `json:"unknownJobs"`
	ParseFailures int            `json:"parseFailures"`
}

// RunSummary is the aggregate of every job of a run.
type RunSummary struct {
	Run           *workflow.Run `json:"run"`
	Status        Status        `json:"status"`
	Integration   TypeSummary   `json:"integration"`
	UI            TypeSummary   `json:"ui"`
	DAST          TypeSummary   `json:"dast"`
	Jobs          []*JobResult  `json:"jobs"`
	ParseFailures int           `json:"parseFailures"`
	UnknownJobs   int           `json:"unknownJobs"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// ByType returns the aggregate of a job type.
func (rs *RunSummary) ByType(jt workflow.JobType) *TypeSummary {
	switch jt {
	case workflow.JobTypeIntegration:
		return &rs.Integration
	case workflow.JobTypeUI:
		return &rs.UI
	case workflow.JobTypeDAST:
		return &rs.DAST
	}
	return nil
}

// JobsOf returns the jobs of a type, in name order.
func (rs *RunSummary) JobsOf(jt workflow.JobType) []*JobResult {
	jobs := []*JobResult{}
	for _, j := range rs.Jobs {
		if j.Job.Type == jt {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// TotalJobs is the number of jobs with a known type.
func (rs *RunSummary) TotalJobs() int {
	return rs.Integration.Jobs + rs.UI.Jobs + rs.DAST.Jobs
}

// Aggregate sums the counters of the job results. The status is UNKNOWN
// without jobs, FAIL when a job has failures or a parse failure, PASS
// otherwise.
func Aggregate(results []*JobResult) *RunSummary {
	rs := &RunSummary{Jobs: []*JobResult{}}
	for _, jr := range results {
		if jr == nil || jr.Job == nil {
			continue
		}
		rs.Jobs = append(rs.Jobs, jr)
	}
	sort.SliceStable(rs.Jobs, func(i, j int) bool {
		return rs.Jobs[i].Job.Name < rs.Jobs[j].Job.Name
	})

	failed := false
	for _, jr := range rs.Jobs {
		ts := rs.ByType(jr.Job.Type)
		if ts == nil {
			rs.UnknownJobs += 1
			continue
		}
		ts.Jobs += 1
		ts.Counts.add(jr.Counts())
		status := jr.Status()
		switch jr.Job.Type {
		case workflow.JobTypeUI:
			if jr.UI != nil {
				ts.Flaky += jr.UI.Flaky
			}
		case workflow.JobTypeDAST:
			if jr.DAST != nil {
				ts.Findings += jr.DAST.Total
				for sev, cnt := range jr.DAST.Severity {
					if ts.Severity == nil {
						ts.Severity = map[string]int{}
					}
					ts.Severity[sev] += cnt
				}
			}
		}
		if jr.ParseError() != "" {
			ts.ParseFailures += 1
			rs.ParseFailures += 1
			failed = true
		}
		if jr.Flagged() {
			ts.FailedJobs += 1
			failed = true
		}
		if status == StatusUnknown {
			ts.UnknownJobs += 1
			rs.UnknownJobs += 1
		}
	}

	switch {
	case len(rs.Jobs) == 0:
		rs.Status = StatusUnknown
	case failed:
		rs.Status = StatusFail
	default:
		rs.Status = StatusPass
	}
	return rs
}

// ParseJob runs the parser selected by the job type.
func ParseJob(job *workflow.Job) *JobResult {
	jr := &JobResult{Job: job}
	switch job.Type {
	case workflow.JobTypeIntegration:
		jr.Integration = ParseIntegration(job)
	case workflow.JobTypeUI:
		jr.UI = ParseUI(job)
	case workflow.JobTypeDAST:
		jr.DAST = ParseDAST(job)
	}
	if job.PodLogs {
		jr.PodLogs = ParsePodLogs(job)
	}
	return jr
}

// SummarizeRun discovers, parses and aggregates the jobs of a run directory.
// Only an unusable run directory is returned as error.
func SummarizeRun(runDir string) (*RunSummary, error) {
	timers := metrics.NewTimers()
	defer timers.LogDebug()

	timers.Set("discover")
	jobs, warnings, err := workflow.DiscoverJobs(runDir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to summarize run %s", runDir)
	}

	timers.Set("parse")
	results := make([]*JobResult, 0, len(jobs))
	for _, job := range jobs {
		log.Infof("Processing job: %s", job.Name)
		jr := ParseJob(job)
		warnings = append(warnings, jr.Warnings()...)
		results = append(results, jr)
	}

	timers.Set("aggregate")
	rs := Aggregate(results)
	rs.Run = workflow.NewRun(runDir)
	rs.Warnings = warnings
	timers.Stop()

	log.Infof("Run %s: %d jobs, status %s", rs.Run.Name, len(rs.Jobs), rs.Status)
	return rs, nil
}
