package adm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wt "github.com/apicurio/workflow-results/internal/workflow/workflowtest"
)

func TestParseJUnit(t *testing.T) {
	file := wt.WriteFile(t, t.TempDir(), "TEST-io.apicurio.tests.SmokeIT.xml",
		wt.SurefireSuite("io.apicurio.tests.SmokeIT", 5, 1, 1, 1, 3.5))

	var buf bytes.Buffer
	require.NoError(t, parseJUnit(&buf, file, &parseJUnitInput{skipPassed: true}))
	out := buf.String()
	assert.Contains(t, out, "- Total: 5")
	assert.Contains(t, out, "- Errors: 1")
	assert.Contains(t, out, "#> Failed tests (2)")
	assert.Contains(t, out, `"testFail0"`)
	assert.NotContains(t, out, "#> Passed tests")

	assert.Error(t, parseJUnit(&buf, file+".missing", &parseJUnitInput{}))
}

func TestParseSarif(t *testing.T) {
	file := wt.WriteFile(t, t.TempDir(), "result.sarif", wt.SarifLog("error", "", "note"))

	var buf bytes.Buffer
	require.NoError(t, parseSarif(&buf, file))
	out := buf.String()
	assert.Contains(t, out, "- Findings: 3")
	assert.Contains(t, out, "- error: 1")
	assert.Contains(t, out, "- warning: 1")
	assert.Contains(t, out, "- note: 1")

	bad := wt.WriteFile(t, t.TempDir(), "bad.sarif", "{")
	assert.Error(t, parseSarif(&buf, bad))
}

func TestParsePlaywright(t *testing.T) {
	file := wt.WriteFile(t, t.TempDir(), "results.json", wt.PlaywrightResults(4, 1, 0, 0))

	var buf bytes.Buffer
	require.NoError(t, parsePlaywright(&buf, file))
	out := buf.String()
	assert.Contains(t, out, "- Unexpected: 1")
	assert.Contains(t, out, "dashboard loads")
	assert.Contains(t, out, "- Duration: 60.0s")
}
