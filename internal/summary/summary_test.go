package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"k8s.io/utils/ptr"

	"github.com/apicurio/workflow-results/internal/workflow"
	wt "github.com/apicurio/workflow-results/internal/workflow/workflowtest"
)

func newJob(t *testing.T, runDir, name string, jt workflow.JobType) *workflow.Job {
	t.Helper()
	return &workflow.Job{
		Name:   name,
		Path:   filepath.Join(runDir, name),
		Type:   jt,
		Config: workflow.ParseConfigInfo(name),
	}
}

func TestNewCounts(t *testing.T) {
	tests := []struct {
		name                           string
		total, failures, errs, skipped int
		want                           Counts
	}{
		{name: "pass", total: 10, skipped: 1, want: Counts{Total: 10, Passed: 9, Skipped: 1}},
		{name: "errors are failures", total: 10, failures: 1, errs: 2, want: Counts{Total: 10, Passed: 7, Failed: 3, Errors: 2}},
		{name: "negative clamped", total: -3, failures: -1, skipped: 2, want: Counts{Total: 2, Skipped: 2}},
		{name: "total lower than parts", total: 1, failures: 2, skipped: 1, want: Counts{Total: 3, Failed: 2, Skipped: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newCounts(tt.total, tt.failures, tt.errs, tt.skipped)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Passed+got.Failed+got.Skipped)
		})
	}
}

func TestParseIntegration(t *testing.T) {
	type testCase struct {
		name   string
		setup  func(t *testing.T, runDir, job string)
		assert func(t *testing.T, res *IntegrationResult)
	}
	cases := []testCase{
		{
			name: "failsafe summary",
			setup: func(t *testing.T, runDir, job string) {
				wt.IntegrationJob(t, runDir, job, 10, 0, 1)
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, Counts{Total: 10, Passed: 9, Failed: 0, Skipped: 1}, res.Counts)
				assert.Equal(t, StatusPass, res.Status)
				assert.Empty(t, res.ParseError)
				require.Len(t, res.Suites, 1)
				assert.Equal(t, "SmokeIT", res.Suites[0].ShortName)
				assert.Equal(t, 12.5, res.Suites[0].Time)
				require.NotNil(t, res.Timing)
				assert.Equal(t, 12.5, res.Timing.Max)
				assert.Equal(t, "job/test-results/failsafe-reports", res.ReportPath)
			},
		},
		{
			name: "failures and errors",
			setup: func(t *testing.T, runDir, job string) {
				base := job + "/test-results/failsafe-reports/"
				wt.WriteFile(t, runDir, base+"failsafe-summary.xml", wt.FailsafeSummary(10, 1, 1, 0))
				wt.WriteFile(t, runDir, base+"TEST-a.RulesIT.xml", wt.SurefireSuite("a.RulesIT", 10, 1, 1, 0, 3))
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, Counts{Total: 10, Passed: 8, Failed: 2, Errors: 1}, res.Counts)
				assert.Equal(t, StatusFail, res.Status)
				require.Len(t, res.Failures, 2)
				assert.Equal(t, "testFail0", res.Failures[0].Name)
				assert.Equal(t, "expected <200> but was <500>", res.Failures[0].Message)
				assert.Equal(t, "connection reset", res.Failures[1].Message)
			},
		},
		{
			name: "summary missing sums suites",
			setup: func(t *testing.T, runDir, job string) {
				base := job + "/test-results/failsafe-reports/"
				wt.WriteFile(t, runDir, base+"TEST-a.AIT.xml", wt.SurefireSuite("a.AIT", 4, 0, 0, 1, 1))
				wt.WriteFile(t, runDir, base+"TEST-a.BIT.xml", wt.SurefireSuite("a.BIT", 6, 1, 0, 0, 2))
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, Counts{Total: 10, Passed: 8, Failed: 1, Skipped: 1}, res.Counts)
				assert.Equal(t, StatusFail, res.Status)
				assert.Equal(t, 2, res.Timing.Count)
				assert.Equal(t, 1.5, res.Timing.Mean)
			},
		},
		{
			name: "malformed summary",
			setup: func(t *testing.T, runDir, job string) {
				base := job + "/test-results/failsafe-reports/"
				wt.WriteFile(t, runDir, base+"failsafe-summary.xml", "<failsafe-summary><completed>")
				wt.WriteFile(t, runDir, base+"TEST-a.AIT.xml", wt.SurefireSuite("a.AIT", 4, 0, 0, 0, 1))
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, Counts{}, res.Counts)
				assert.NotEmpty(t, res.ParseError)
				assert.Equal(t, StatusError, res.Status)
			},
		},
		{
			name: "malformed test report fails the job",
			setup: func(t *testing.T, runDir, job string) {
				wt.IntegrationJob(t, runDir, job, 10, 0, 1)
				wt.WriteFile(t, runDir, job+"/test-results/failsafe-reports/TEST-io.apicurio.BrokenIT.xml", "<testsuite")
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, StatusError, res.Status)
				assert.Equal(t, "1 malformed test report(s): TEST-io.apicurio.BrokenIT.xml", res.ParseError)
				assert.Equal(t, Counts{Total: 10, Passed: 9, Skipped: 1}, res.Counts)
				require.Len(t, res.Suites, 1)
				require.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], "TEST-io.apicurio.BrokenIT.xml")
			},
		},
		{
			name: "only malformed test reports",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/failsafe-reports/TEST-broken.xml", "<testsuite")
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, StatusError, res.Status)
				assert.NotEmpty(t, res.ParseError)
			},
		},
		{
			name: "missing artifacts",
			setup: func(t *testing.T, runDir, job string) {
				wt.Mkdir(t, runDir, job+"/test-results")
			},
			assert: func(t *testing.T, res *IntegrationResult) {
				assert.Equal(t, StatusUnknown, res.Status)
				assert.True(t, res.Missing)
				assert.Empty(t, res.ParseError)
				assert.Equal(t, Counts{}, res.Counts)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runDir := t.TempDir()
			tc.setup(t, runDir, "job")
			res := ParseIntegration(newJob(t, runDir, "job", workflow.JobTypeIntegration))
			require.NotNil(t, res)
			assert.Equal(t, res.Counts.Total, res.Counts.Passed+res.Counts.Failed+res.Counts.Skipped)
			tc.assert(t, res)
		})
	}
}

func TestParseUI(t *testing.T) {
	type testCase struct {
		name   string
		setup  func(t *testing.T, runDir, job string)
		assert func(t *testing.T, res *UIResult)
	}
	cases := []testCase{
		{
			name: "results.json",
			setup: func(t *testing.T, runDir, job string) {
				wt.UIJob(t, runDir, job, 5, 0)
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusPass, res.Status)
				assert.Equal(t, Counts{Total: 5, Passed: 5}, res.Counts)
				assert.Equal(t, 60.0, res.Duration)
				assert.Equal(t, UISourceJSON, res.Source)
				assert.Equal(t, "job/test-results/index.html", res.ReportPath)
				require.Len(t, res.Specs, 1)
				assert.Equal(t, "passed", res.Specs[0].Status)
				assert.Equal(t, 1.2, res.Specs[0].Duration)
			},
		},
		{
			name: "failures and flaky",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/results.json", wt.PlaywrightResults(3, 2, 1, 1))
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusFail, res.Status)
				assert.Equal(t, Counts{Total: 7, Passed: 4, Failed: 2, Skipped: 1}, res.Counts)
				assert.Equal(t, 1, res.Flaky)
				assert.Empty(t, res.ReportPath)
			},
		},
		{
			name: "reported status wins",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/results.json",
					`{"status": "timedout", "stats": {"expected": 3}}`)
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusFail, res.Status)
			},
		},
		{
			name: "missing results.json",
			setup: func(t *testing.T, runDir, job string) {
				wt.Mkdir(t, runDir, job+"/test-results")
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusUnknown, res.Status)
				assert.True(t, res.Missing)
				assert.Empty(t, res.ParseError)
			},
		},
		{
			name: "html fallback",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/index.html",
					`<span class="counter">4</span><span class="counter">3</span><span class="counter">1</span><span class="counter">0</span><span class="counter">0</span>`)
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, UISourceHTML, res.Source)
				assert.Equal(t, StatusFail, res.Status)
				assert.Equal(t, Counts{Total: 4, Passed: 3, Failed: 1}, res.Counts)
				assert.Equal(t, "job/test-results/index.html", res.ReportPath)
			},
		},
		{
			name: "html without counters",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/index.html", `<html></html>`)
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusUnknown, res.Status)
				assert.True(t, res.Missing)
			},
		},
		{
			name: "malformed results.json",
			setup: func(t *testing.T, runDir, job string) {
				wt.WriteFile(t, runDir, job+"/test-results/results.json", `{"stats": `)
			},
			assert: func(t *testing.T, res *UIResult) {
				assert.Equal(t, StatusError, res.Status)
				assert.NotEmpty(t, res.ParseError)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runDir := t.TempDir()
			tc.setup(t, runDir, "job")
			res := ParseUI(newJob(t, runDir, "job", workflow.JobTypeUI))
			require.NotNil(t, res)
			tc.assert(t, res)
		})
	}
}

func TestParseDAST(t *testing.T) {
	runDir := t.TempDir()
	job := "os419_inmemory_dastscan"
	wt.DASTJob(t, runDir, job, "warning", "", "error")
	// sibling scan with one good and one corrupt file
	wt.WriteFile(t, runDir, job+"/dast-results/ui/a.sarif", wt.SarifLog("note"))
	wt.WriteFile(t, runDir, job+"/dast-results/ui/b.sarif", `{"version": "2.1.0", "runs": [`)
	wt.WriteFile(t, runDir, job+"/dast-results/ui/scan-status.txt", "Scan finished with no results\n")
	// file at the dast-results root
	wt.WriteFile(t, runDir, job+"/dast-results/root.sarif", wt.SarifLog("error"))

	res := ParseDAST(newJob(t, runDir, job, workflow.JobTypeDAST))

	assert.Equal(t, 5, res.Total, "corrupt file is excluded")
	assert.Equal(t, map[string]int{"error": 2, "warning": 2, "note": 1}, res.Severity)
	assert.Equal(t, []SeverityCount{{"error", 2}, {"warning", 2}, {"note", 1}}, res.SeverityCounts())
	assert.Equal(t, []string{job + "/dast-results/ui/b.sarif"}, res.CorruptFiles)
	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.ParseError)
	require.Len(t, res.Warnings, 1)

	require.Len(t, res.Scans, 3)
	assert.Equal(t, "dast-results", res.Scans[0].Name)
	assert.Equal(t, "api", res.Scans[1].Name)
	assert.Equal(t, 3, res.Scans[1].Findings)
	assert.Equal(t, ScanCompleted, res.Scans[1].Status)
	assert.Equal(t, job+"/dast-results/api/zap/zap-report.html", res.Scans[1].ZAPReport)
	assert.Equal(t, "ui", res.Scans[2].Name)
	assert.Equal(t, ScanNoResults, res.Scans[2].Status)
	assert.Equal(t, 1, res.Scans[2].SarifFiles)
}

func TestParseDASTClean(t *testing.T) {
	runDir := t.TempDir()
	wt.DASTJob(t, runDir, "job")
	res := ParseDAST(newJob(t, runDir, "job", workflow.JobTypeDAST))
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.CorruptFiles)

	empty := t.TempDir()
	wt.Mkdir(t, empty, "job/dast-results")
	res = ParseDAST(newJob(t, empty, "job", workflow.JobTypeDAST))
	assert.Equal(t, StatusUnknown, res.Status)
	assert.True(t, res.Missing)
}

func TestParsePodLogs(t *testing.T) {
	runDir := t.TempDir()
	wt.WriteFile(t, runDir, "job/pod-logs/registry/app.log", "INFO started\nERROR boom\njava.lang.IllegalStateException: x\n")
	wt.WriteFile(t, runDir, "job/pod-logs/notes.txt", "ignored")

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("FATAL OOMKilled\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	wt.WriteFile(t, runDir, "job/pod-logs/operator.log.xz", buf.String())

	job := newJob(t, runDir, "job", workflow.JobTypeIntegration)
	pl := ParsePodLogs(job)
	require.NotNil(t, pl)
	require.Len(t, pl.Files, 2)

	assert.Equal(t, "job/pod-logs/operator.log.xz", pl.Files[0].Path)
	assert.True(t, pl.Files[0].Compressed)
	assert.Equal(t, ErrorCounter{"FATAL": 1, "OOMKilled": 1, "total": 2}, pl.Files[0].Errors)

	assert.Equal(t, "job/pod-logs/registry/app.log", pl.Files[1].Path)
	assert.Equal(t, ErrorCounter{"ERROR": 1, "Exception": 1, "total": 2}, pl.Files[1].Errors)

	assert.Equal(t, pl.Files[0].Size+pl.Files[1].Size, pl.TotalSize)
	assert.Equal(t, 4, pl.Errors["total"])

	assert.Nil(t, ParsePodLogs(newJob(t, t.TempDir(), "none", workflow.JobTypeUI)))
}

func TestNewErrorCounter(t *testing.T) {
	type args struct {
		buf     *string
		pattern []string
	}
	tests := []struct {
		name string
		args args
		want ErrorCounter
	}{
		{
			name: "parse counters",
			args: args{
				buf: ptr.To(`this buffer has one error,
					and another 'ERROR:', also crashs with 'panic.go:12:'.
					Caused by: java.lang.NullPointerException`),
				pattern: CommonErrorPatterns,
			},
			want: ErrorCounter{
				`ERROR`: 1, `Exception`: 1, `Caused by:`: 1,
				`error`: 1, `panic(\.go)?:`: 1, `total`: 5,
			},
		},
		{
			name: "no counters",
			args: args{
				buf:     ptr.To(`this buffer has nothing to parse`),
				pattern: CommonErrorPatterns,
			},
			want: nil,
		},
		{
			name: "custom patterns",
			args: args{
				buf:     ptr.To(`warn: disk low, WARN again`),
				pattern: []string{`(?i)warn`},
			},
			want: ErrorCounter{`(?i)warn`: 2, `total`: 2},
		},
	}
	require.Len(t, commonErrorRegexps, len(CommonErrorPatterns))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewErrorCounter(tt.args.buf, tt.args.pattern))
		})
	}
}

func TestMergeErrorCounters(t *testing.T) {
	tests := []struct {
		name     string
		ec1, ec2 ErrorCounter
		want     ErrorCounter
	}{
		{
			name: "merge both",
			ec1:  ErrorCounter{"error": 1, "FATAL": 10},
			ec2:  ErrorCounter{"error": 1, "FATAL": 0},
			want: ErrorCounter{"error": 2, "FATAL": 10},
		},
		{name: "both null", want: nil},
		{name: "ec1 null", ec2: ErrorCounter{"error": 1}, want: ErrorCounter{"error": 1}},
		{name: "ec2 null", ec1: ErrorCounter{"error": 1}, want: ErrorCounter{"error": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeErrorCounters(tt.ec1, tt.ec2))
		})
	}
}

func TestNewDurationStats(t *testing.T) {
	assert.Nil(t, NewDurationStats(nil))
	ds := NewDurationStats([]float64{1, 2, 3, 4, 10})
	require.NotNil(t, ds)
	assert.Equal(t, 5, ds.Count)
	assert.Equal(t, 20.0, ds.Total)
	assert.Equal(t, 4.0, ds.Mean)
	assert.Equal(t, 3.0, ds.Median)
	assert.Equal(t, 10.0, ds.Max)
}

func TestAggregate(t *testing.T) {
	job := func(name string, jt workflow.JobType) *workflow.Job {
		return &workflow.Job{Name: name, Type: jt}
	}
	t.Run("no jobs", func(t *testing.T) {
		rs := Aggregate(nil)
		assert.Equal(t, StatusUnknown, rs.Status)
		assert.Empty(t, rs.Jobs)
	})
	t.Run("pass with unknown and findings", func(t *testing.T) {
		rs := Aggregate([]*JobResult{
			{Job: job("b_ui", workflow.JobTypeUI), UI: &UIResult{Status: StatusUnknown, Missing: true}},
			{Job: job("a_it", workflow.JobTypeIntegration), Integration: &IntegrationResult{
				Status: StatusPass, Counts: Counts{Total: 3, Passed: 3}}},
			{Job: job("c_dast", workflow.JobTypeDAST), DAST: &DASTResult{
				Status: StatusPass, Total: 2, Severity: map[string]int{"warning": 2}}},
		})
		assert.Equal(t, StatusPass, rs.Status)
		assert.Equal(t, "a_it", rs.Jobs[0].Job.Name, "jobs sorted by name")
		assert.Equal(t, 1, rs.UnknownJobs)
		assert.Equal(t, 2, rs.DAST.Findings)
		assert.Equal(t, map[string]int{"warning": 2}, rs.DAST.Severity)
		assert.Equal(t, 3, rs.TotalJobs())
	})
	t.Run("parse failure fails the run", func(t *testing.T) {
		rs := Aggregate([]*JobResult{
			{Job: job("a_dast", workflow.JobTypeDAST), DAST: &DASTResult{Status: StatusError, ParseError: "corrupt"}},
		})
		assert.Equal(t, StatusFail, rs.Status)
		assert.Equal(t, 1, rs.ParseFailures)
		assert.Equal(t, 1, rs.DAST.ParseFailures)
	})
}

func TestSummarizeRunPass(t *testing.T) {
	runDir := filepath.Join(t.TempDir(), "2025-08-06-16780041188")
	wt.IntegrationJob(t, runDir, "os419_pg17_integrationtests", 10, 0, 1)
	wt.UIJob(t, runDir, "os419_inmemory_uitests", 8, 0)
	wt.DASTJob(t, runDir, "os419_inmemory_dastscan")

	rs, err := SummarizeRun(runDir)
	require.NoError(t, err)

	assert.Equal(t, StatusPass, rs.Status)
	assert.Equal(t, Counts{Total: 10, Passed: 9, Failed: 0, Skipped: 1}, rs.Integration.Counts)
	assert.Equal(t, 1, rs.Integration.Jobs)
	assert.Equal(t, 1, rs.UI.Jobs)
	assert.Equal(t, 1, rs.DAST.Jobs)
	assert.Equal(t, 0, rs.DAST.Findings)
	assert.Equal(t, "2025-08-06-16780041188", rs.Run.Name)
	assert.Equal(t, "16780041188", rs.Run.ID)
	assert.Empty(t, rs.Warnings)
}

func TestSummarizeRunFail(t *testing.T) {
	runDir := t.TempDir()
	wt.IntegrationJob(t, runDir, "os419_pg17_integrationtests", 10, 2, 0)
	wt.IntegrationJob(t, runDir, "os419_mysql_integrationtests", 5, 0, 0)
	wt.Mkdir(t, runDir, "os419_setup")

	rs, err := SummarizeRun(runDir)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rs.Status)
	assert.Equal(t, 2, rs.Integration.Counts.Failed)
	assert.Equal(t, 1, rs.Integration.FailedJobs)
	require.Len(t, rs.Jobs, 2)
	assert.False(t, rs.Jobs[0].Flagged())
	assert.True(t, rs.Jobs[1].Flagged())
	require.Len(t, rs.Warnings, 1)
	assert.Contains(t, rs.Warnings[0], "os419_setup")
}

func TestSummarizeRunMalformedReport(t *testing.T) {
	runDir := t.TempDir()
	wt.IntegrationJob(t, runDir, "os419_pg17_integrationtests", 10, 0, 1)
	wt.WriteFile(t, runDir, "os419_pg17_integrationtests/test-results/failsafe-reports/TEST-io.apicurio.BrokenIT.xml", "<testsuite name=")

	rs, err := SummarizeRun(runDir)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, rs.Status)
	assert.Equal(t, 1, rs.ParseFailures)
	require.Len(t, rs.Jobs, 1)
	assert.True(t, rs.Jobs[0].Flagged())
}

func TestSummarizeRunMissingResults(t *testing.T) {
	runDir := t.TempDir()
	wt.Mkdir(t, runDir, "os419_inmemory_uitests/test-results")

	rs, err := SummarizeRun(runDir)
	require.NoError(t, err)
	require.Len(t, rs.Jobs, 1)
	assert.Equal(t, StatusUnknown, rs.Jobs[0].Status())
	assert.Equal(t, StatusPass, rs.Status)
	assert.Equal(t, 1, rs.UnknownJobs)
}

func TestSummarizeRunUsageError(t *testing.T) {
	_, err := SummarizeRun(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = SummarizeRun(file)
	assert.Error(t, err)
}
