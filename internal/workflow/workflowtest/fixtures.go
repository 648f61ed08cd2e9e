// Package workflowtest builds run directory trees for tests.
package workflowtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to base/rel, creating parent directories.
func WriteFile(t testing.TB, base, rel, content string) string {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Mkdir creates base/rel.
func Mkdir(t testing.TB, base, rel string) string {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}

// FailsafeSummary renders a failsafe-summary.xml document.
func FailsafeSummary(completed, errors, failures, skipped int) string {
	result := 0
	if errors+failures > 0 {
		result = 255
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<failsafe-summary xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" result="%d" timeout="false">
    <completed>%d</completed>
    <errors>%d</errors>
    <failures>%d</failures>
    <skipped>%d</skipped>
    <failureMessage xsi:nil="true" />
</failsafe-summary>
`, result, completed, errors, failures, skipped)
}

// SurefireSuite renders a TEST-*.xml document with generated test cases:
// passing first, then failures, errors and skipped.
func SurefireSuite(name string, tests, failures, errors, skipped int, seconds float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="%s" time="%.3f" tests="%d" errors="%d" skipped="%d" failures="%d">
`, name, seconds, tests, errors, skipped, failures)
	passed := tests - failures - errors - skipped
	for i := 0; i < passed; i++ {
		fmt.Fprintf(&b, "  <testcase name=\"testPass%d\" classname=\"%s\" time=\"0.1\"/>\n", i, name)
	}
	for i := 0; i < failures; i++ {
		fmt.Fprintf(&b, "  <testcase name=\"testFail%d\" classname=\"%s\" time=\"0.1\"><failure message=\"expected &lt;200&gt; but was &lt;500&gt;\" type=\"org.opentest4j.AssertionFailedError\">trace</failure></testcase>\n", i, name)
	}
	for i := 0; i < errors; i++ {
		fmt.Fprintf(&b, "  <testcase name=\"testError%d\" classname=\"%s\" time=\"0.1\"><error type=\"java.io.IOException\">connection reset\n\tat Foo.bar(Foo.java:1)</error></testcase>\n", i, name)
	}
	for i := 0; i < skipped; i++ {
		fmt.Fprintf(&b, "  <testcase name=\"testSkip%d\" classname=\"%s\" time=\"0\"><skipped/></testcase>\n", i, name)
	}
	b.WriteString("</testsuite>\n")
	return b.String()
}

// PlaywrightResults renders a minimal Playwright JSON reporter document.
func PlaywrightResults(expected, unexpected, skipped, flaky int) string {
	ok := unexpected == 0
	return fmt.Sprintf(`{
  "suites": [
    {"title": "registry.spec.ts", "file": "registry.spec.ts", "specs": [
      {"title": "dashboard loads", "ok": %t, "tests": [
        {"projectName": "chromium", "status": "expected", "results": [{"status": "passed", "duration": 1200}]}
      ]}
    ]}
  ],
  "errors": [],
  "stats": {"startTime": "2025-08-06T10:00:00.000Z", "duration": 60000, "expected": %d, "unexpected": %d, "skipped": %d, "flaky": %d}
}`, ok, expected, unexpected, skipped, flaky)
}

// SarifLog renders a SARIF 2.1.0 document with one result per level.
func SarifLog(levels ...string) string {
	results := []string{}
	for i, lvl := range levels {
		level := ""
		if lvl != "" {
			level = fmt.Sprintf(`"level": %q, `, lvl)
		}
		results = append(results, fmt.Sprintf(
			`{"ruleId": "1%04d", %s"message": {"text": "finding %d"}, "locations": [{"physicalLocation": {"artifactLocation": {"uri": "https://registry.example.com/apis/%d"}}}]}`,
			i, level, i, i))
	}
	return fmt.Sprintf(`{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "ZAP"}}, "results": [%s]}]}`,
		strings.Join(results, ",\n"))
}

// IntegrationJob creates a job with a failsafe summary and one TEST report.
func IntegrationJob(t testing.TB, runDir, name string, total, failed, skipped int) {
	t.Helper()
	base := name + "/test-results/failsafe-reports/"
	WriteFile(t, runDir, base+"failsafe-summary.xml", FailsafeSummary(total, 0, failed, skipped))
	WriteFile(t, runDir, base+"TEST-io.apicurio.tests.SmokeIT.xml",
		SurefireSuite("io.apicurio.tests.SmokeIT", total, failed, 0, skipped, 12.5))
}

// UIJob creates a job with a Playwright JSON and HTML report.
func UIJob(t testing.TB, runDir, name string, expected, unexpected int) {
	t.Helper()
	WriteFile(t, runDir, name+"/test-results/results.json", PlaywrightResults(expected, unexpected, 0, 0))
	WriteFile(t, runDir, name+"/test-results/index.html", "<html>playwright</html>")
}

// DASTJob creates a job with one scan holding the given SARIF levels.
func DASTJob(t testing.TB, runDir, name string, levels ...string) {
	t.Helper()
	WriteFile(t, runDir, name+"/dast-results/api/zap/result.sarif", SarifLog(levels...))
	WriteFile(t, runDir, name+"/dast-results/api/zap/zap-report.html", "<html>zap</html>")
	WriteFile(t, runDir, name+"/dast-results/api/scan-status.txt", "completed\n")
}
