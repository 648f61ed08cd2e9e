package workflow

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConfigInfo holds the configuration dimensions encoded in a job name,
// e.g. os419_pg17_integrationtests or os419-inmemory-uitests.
type ConfigInfo struct {
	OpenShiftVersion string `json:"openshiftVersion,omitempty"`
	Storage          string `json:"storage,omitempty"`
	TestType         string `json:"testType,omitempty"`
	Description      string `json:"description,omitempty"`
}

var (
	reOpenShift = regexp.MustCompile(`^os(\d)(\d+)$`)
	rePostgres  = regexp.MustCompile(`^pg(\d*)$`)
	reStrimzi   = regexp.MustCompile(`^strimzi(\d*)$`)
	titleCaser  = cases.Title(language.English)
)

// ParseConfigInfo derives the configuration dimensions from a job name.
// Unknown tokens are title-cased.
func ParseConfigInfo(name string) ConfigInfo {
	parts := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-'
	})
	ci := ConfigInfo{}
	if len(parts) < 2 {
		return ci
	}
	if m := reOpenShift.FindStringSubmatch(parts[0]); m != nil {
		ci.OpenShiftVersion = fmt.Sprintf("%s.%s", m[1], m[2])
	}

	rest := parts[1:]
	// os419_dastscan: the test type directly follows the platform.
	if tt, ok := knownTestType(rest[0]); ok && len(rest) == 1 {
		ci.TestType = tt
	} else {
		ci.Storage = storageName(rest[0])
		if len(rest) > 1 {
			ci.TestType = testTypeName(strings.Join(rest[1:], "-"))
		}
	}
	ci.Description = describe(ci)
	return ci
}

func storageName(s string) string {
	switch {
	case strings.Contains(s, "inmemory"):
		return "In-Memory"
	case strings.Contains(s, "kafkasql"):
		return "KafkaSQL"
	case strings.Contains(s, "mysql"):
		return "MySQL"
	case strings.Contains(s, "authn"):
		return "Authentication Tests"
	}
	if m := rePostgres.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace("PostgreSQL " + m[1])
	}
	if m := reStrimzi.FindStringSubmatch(s); m != nil {
		// strimzi047 -> 0.47
		v := strings.TrimLeft(m[1], "0")
		if v == "" {
			return "Strimzi Kafka"
		}
		return "Strimzi Kafka 0." + v
	}
	return titleCaser.String(s)
}

func knownTestType(s string) (string, bool) {
	switch {
	case strings.Contains(s, "integrationtests"):
		return "Integration Tests", true
	case strings.Contains(s, "uitests"):
		return "UI Tests", true
	case strings.Contains(s, "dastscan"):
		return "DAST Security Scan", true
	}
	return "", false
}

func testTypeName(s string) string {
	if tt, ok := knownTestType(s); ok {
		return tt
	}
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "tests", " tests")
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

func describe(ci ConfigInfo) string {
	if ci.OpenShiftVersion == "" && ci.Storage == "" && ci.TestType == "" {
		return ""
	}
	desc := ci.TestType
	if desc == "" {
		desc = "Tests"
	}
	if ci.OpenShiftVersion != "" {
		desc += " on OpenShift " + ci.OpenShiftVersion
	}
	if ci.Storage != "" {
		desc += " with " + ci.Storage
	}
	return desc
}
