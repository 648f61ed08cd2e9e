package summary

import (
	"github.com/apicurio/workflow-results/internal/workflow"
)

// Status is the outcome of a job or a run.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
	// StatusError marks a job whose artifacts exist but could not be parsed.
	StatusError Status = "ERROR"
)

// Counts holds test counters. Failed includes errors, so
// Total == Passed + Failed + Skipped.
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors,omitempty"`
}

// newCounts builds consistent counters from raw report values. Negative
// values are clamped to zero and total is adjusted to the sum of the parts.
func newCounts(total, failures, errs, skipped int) Counts {
	c := Counts{
		Failed:  clamp(failures) + clamp(errs),
		Skipped: clamp(skipped),
		Errors:  clamp(errs),
	}
	c.Passed = clamp(clamp(total) - c.Failed - c.Skipped)
	c.Total = c.Passed + c.Failed + c.Skipped
	return c
}

func (c *Counts) add(o Counts) {
	c.Total += o.Total
	c.Passed += o.Passed
	c.Failed += o.Failed
	c.Skipped += o.Skipped
	c.Errors += o.Errors
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// JobResult is a job plus the result of the parser selected by its type.
type JobResult struct {
	Job         *workflow.Job      `json:"job"`
	Integration *IntegrationResult `json:"integration,omitempty"`
	UI          *UIResult          `json:"ui,omitempty"`
	DAST        *DASTResult        `json:"dast,omitempty"`
	PodLogs     *PodLogs           `json:"podLogs,omitempty"`
}

// Status returns the status of the typed result.
func (jr *JobResult) Status() Status {
	switch jr.Job.Type {
	case workflow.JobTypeIntegration:
		if jr.Integration != nil {
			return jr.Integration.Status
		}
	case workflow.JobTypeUI:
		if jr.UI != nil {
			return jr.UI.Status
		}
	case workflow.JobTypeDAST:
		if jr.DAST != nil {
			return jr.DAST.Status
		}
	}
	return StatusUnknown
}

// ParseError returns the parse failure reason of the typed result, if any.
func (jr *JobResult) ParseError() string {
	switch jr.Job.Type {
	case workflow.JobTypeIntegration:
		if jr.Integration != nil {
			return jr.Integration.ParseError
		}
	case workflow.JobTypeUI:
		if jr.UI != nil {
			return jr.UI.ParseError
		}
	case workflow.JobTypeDAST:
		if jr.DAST != nil {
			return jr.DAST.ParseError
		}
	}
	return ""
}

// Counts returns the test counters of the typed result. DAST jobs have none.
func (jr *JobResult) Counts() Counts {
	switch jr.Job.Type {
	case workflow.JobTypeIntegration:
		if jr.Integration != nil {
			return jr.Integration.Counts
		}
	case workflow.JobTypeUI:
		if jr.UI != nil {
			return jr.UI.Counts
		}
	}
	return Counts{}
}

// Flagged reports whether the job must be highlighted as failing.
func (jr *JobResult) Flagged() bool {
	s := jr.Status()
	return s == StatusFail || s == StatusError || jr.Counts().Failed > 0
}

// Warnings returns the non-fatal problems found while parsing the job.
func (jr *JobResult) Warnings() []string {
	switch jr.Job.Type {
	case workflow.JobTypeIntegration:
		if jr.Integration != nil {
			return jr.Integration.Warnings
		}
	case workflow.JobTypeDAST:
		if jr.DAST != nil {
			return jr.DAST.Warnings
		}
	}
	return nil
}
