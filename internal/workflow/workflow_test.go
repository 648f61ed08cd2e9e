package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, base string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Join(base, p), 0755))
	}
}

func touch(t *testing.T, base string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(base, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("{}"), 0644))
	}
}

func TestListRuns(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root,
		"2025-08-01-1",
		"2025-08-06-2",
		"2025-07-30-3",
		"2025-08-06-10",
		"2025-02-30-4",   // invalid date
		"2025-08-06",     // no id
		"2025-08-06-2-x", // suffix
		"assets",
	)
	touch(t, root, "2025-08-07-9") // not a directory

	runs, err := ListRuns(root)
	require.NoError(t, err)

	got := []string{}
	for _, r := range runs {
		got = append(got, r.Name)
	}
	assert.Equal(t, []string{"2025-08-06-10", "2025-08-06-2", "2025-08-01-1", "2025-07-30-3"}, got)
	assert.Equal(t, filepath.Join(root, "2025-08-06-10"), runs[0].Path)
	assert.Equal(t, "2025-08-06", runs[0].DateString())
	assert.Equal(t, "10", runs[0].ID)
}

func TestListRunsMissingRoot(t *testing.T) {
	_, err := ListRuns(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSortRuns(t *testing.T) {
	type testCase struct {
		name string
		in   []string
		want []string
	}
	cases := []testCase{
		{
			name: "reverse chronological",
			in:   []string{"2025-08-01-1", "2025-08-06-2", "2025-07-30-3"},
			want: []string{"2025-08-06-2", "2025-08-01-1", "2025-07-30-3"},
		},
		{
			name: "same date by numeric id",
			in:   []string{"2025-08-06-9", "2025-08-06-16780041188", "2025-08-06-100"},
			want: []string{"2025-08-06-16780041188", "2025-08-06-100", "2025-08-06-9"},
		},
		{
			name: "leading zeros tie broken by name",
			in:   []string{"2025-08-06-07", "2025-08-06-7"},
			want: []string{"2025-08-06-7", "2025-08-06-07"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := []*Run{}
			for _, n := range tc.in {
				r, ok := ParseRunName(n)
				require.True(t, ok, n)
				runs = append(runs, r)
			}
			SortRuns(runs)
			got := []string{}
			for _, r := range runs {
				got = append(got, r.Name)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewRun(t *testing.T) {
	r := NewRun("/data/workflow-results/2025-08-06-16780041188/")
	assert.Equal(t, "2025-08-06-16780041188", r.Name)
	assert.Equal(t, "16780041188", r.ID)
	assert.Equal(t, "2025-08-06", r.DateString())

	r = NewRun("/tmp/adhoc")
	assert.Equal(t, "adhoc", r.Name)
	assert.Equal(t, "Unknown", r.DateString())

	runDir := filepath.Join(t.TempDir(), "2025-08-01-1")
	mkdirs(t, runDir, ".")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(runDir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(wd))
	})
	r = NewRun(".")
	assert.Equal(t, "2025-08-01-1", r.Name)
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, ".", r.Path)
}

func TestDiscoverJobs(t *testing.T) {
	run := t.TempDir()
	mkdirs(t, run,
		"os419_pg17_integrationtests/test-results/failsafe-reports",
		"os419_inmemory_uitests/test-results",
		"os419_mysql_uitests/test-results",
		"os419_kafkasql_integrationtests/test-results",
		"os419_inmemory_dastscan/dast-results/api",
		"os419_inmemory_dastscan/pod-logs",
		"os419_setup/logs",
		".git",
	)
	touch(t, run,
		"os419_inmemory_uitests/test-results/results.json",
		"summary.json",
	)
	// Playwright report without JSON on a job not named *uitests.
	touch(t, run, "os419_pg17_e2e/test-results/index.html")

	jobs, warnings, err := DiscoverJobs(run)
	require.NoError(t, err)

	got := map[string]JobType{}
	names := []string{}
	for _, j := range jobs {
		got[j.Name] = j.Type
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{
		"os419_inmemory_dastscan",
		"os419_inmemory_uitests",
		"os419_kafkasql_integrationtests",
		"os419_mysql_uitests",
		"os419_pg17_e2e",
		"os419_pg17_integrationtests",
	}, names, "jobs are sorted by name")
	assert.Equal(t, JobTypeDAST, got["os419_inmemory_dastscan"])
	assert.Equal(t, JobTypeUI, got["os419_inmemory_uitests"])
	assert.Equal(t, JobTypeIntegration, got["os419_kafkasql_integrationtests"])
	assert.Equal(t, JobTypeUI, got["os419_mysql_uitests"])
	assert.Equal(t, JobTypeUI, got["os419_pg17_e2e"])
	assert.Equal(t, JobTypeIntegration, got["os419_pg17_integrationtests"])

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "os419_setup")

	assert.True(t, jobs[0].PodLogs)
	assert.Equal(t, "PostgreSQL 17", jobs[5].Config.Storage)
}

func TestDiscoverJobsUsageErrors(t *testing.T) {
	_, _, err := DiscoverJobs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, _, err = DiscoverJobs(file)
	assert.Error(t, err)
}

func TestJobTypeText(t *testing.T) {
	for _, jt := range append(JobTypes, JobTypeUnknown) {
		b, err := jt.MarshalText()
		require.NoError(t, err)
		var back JobType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, jt, back)
	}
	var jt JobType
	assert.Error(t, jt.UnmarshalText([]byte("e2e")))
}

func TestParseConfigInfo(t *testing.T) {
	tests := []struct {
		name string
		want ConfigInfo
	}{
		{
			name: "os419_pg17_integrationtests",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", Storage: "PostgreSQL 17", TestType: "Integration Tests",
				Description: "Integration Tests on OpenShift 4.19 with PostgreSQL 17",
			},
		},
		{
			name: "os419-pg12-integrationtests",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", Storage: "PostgreSQL 12", TestType: "Integration Tests",
				Description: "Integration Tests on OpenShift 4.19 with PostgreSQL 12",
			},
		},
		{
			name: "os419_inmemory_uitests",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", Storage: "In-Memory", TestType: "UI Tests",
				Description: "UI Tests on OpenShift 4.19 with In-Memory",
			},
		},
		{
			name: "os418_strimzi047",
			want: ConfigInfo{
				OpenShiftVersion: "4.18", Storage: "Strimzi Kafka 0.47",
				Description: "Tests on OpenShift 4.18 with Strimzi Kafka 0.47",
			},
		},
		{
			name: "os419_authn_smoketests",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", Storage: "Authentication Tests", TestType: "Smoke Tests",
				Description: "Smoke Tests on OpenShift 4.19 with Authentication Tests",
			},
		},
		{
			name: "os419_dastscan",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", TestType: "DAST Security Scan",
				Description: "DAST Security Scan on OpenShift 4.19",
			},
		},
		{
			name: "os419_mysql_uitests",
			want: ConfigInfo{
				OpenShiftVersion: "4.19", Storage: "MySQL", TestType: "UI Tests",
				Description: "UI Tests on OpenShift 4.19 with MySQL",
			},
		},
		{
			name: "os420_mongodb_uitests",
			want: ConfigInfo{
				OpenShiftVersion: "4.20", Storage: "Mongodb", TestType: "UI Tests",
				Description: "UI Tests on OpenShift 4.20 with Mongodb",
			},
		},
		{
			name: "standalone",
			want: ConfigInfo{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConfigInfo(tt.name))
		})
	}
}
