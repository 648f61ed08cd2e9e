package api

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SARIF 2.1.0 levels.
const (
	SarifLevelError   = "error"
	SarifLevelWarning = "warning"
	SarifLevelNote    = "note"
	SarifLevelNone    = "none"
)

// SarifLevels is the display order of the severities, most severe first.
var SarifLevels = []string{SarifLevelError, SarifLevelWarning, SarifLevelNote, SarifLevelNone}

type SarifLog struct {
	Version string      `json:"version"`
	Schema  string      `json:"$schema,omitempty"`
	Runs    []*SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool    SarifTool      `json:"tool"`
	Results []*SarifResult `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name    string       `json:"name"`
	Version string       `json:"version,omitempty"`
	Rules   []*SarifRule `json:"rules,omitempty"`
}

type SarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription SarifMessage `json:"shortDescription,omitempty"`
}

type SarifResult struct {
	RuleID    string           `json:"ruleId"`
	Level     string           `json:"level,omitempty"`
	Message   SarifMessage     `json:"message"`
	Locations []*SarifLocation `json:"locations,omitempty"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           *SarifRegion          `json:"region,omitempty"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// Severity returns the normalized result level. SARIF defines "warning" as
// the default when the level is absent.
func (sr *SarifResult) Severity() string {
	level := strings.ToLower(strings.TrimSpace(sr.Level))
	if level == "" {
		return SarifLevelWarning
	}
	return level
}

// Location returns the first reported location as uri[:line].
func (sr *SarifResult) Location() string {
	for _, loc := range sr.Locations {
		if loc == nil || loc.PhysicalLocation.ArtifactLocation.URI == "" {
			continue
		}
		uri := loc.PhysicalLocation.ArtifactLocation.URI
		if r := loc.PhysicalLocation.Region; r != nil && r.StartLine > 0 {
			return fmt.Sprintf("%s:%d", uri, r.StartLine)
		}
		return uri
	}
	return ""
}

// NewSarifLog reads and decodes a SARIF file.
func NewSarifLog(sarifFile string) (*SarifLog, error) {
	data, err := os.ReadFile(sarifFile)
	if err != nil {
		return nil, fmt.Errorf("error reading SARIF file: %w", err)
	}
	return ParseSarifLog(data)
}

// ParseSarifLog decodes a SARIF log. Documents without version nor runs are
// not SARIF and are rejected.
func ParseSarifLog(data []byte) (*SarifLog, error) {
	sl := &SarifLog{}
	if err := json.Unmarshal(data, sl); err != nil {
		return nil, fmt.Errorf("error parsing SARIF data: %w", err)
	}
	if sl.Version == "" && sl.Runs == nil {
		return nil, fmt.Errorf("error parsing SARIF data: missing version and runs")
	}
	return sl, nil
}

// Results returns every result of every run, in document order.
func (sl *SarifLog) Results() []*SarifResult {
	res := []*SarifResult{}
	for _, run := range sl.Runs {
		if run == nil {
			continue
		}
		for _, r := range run.Results {
			if r != nil {
				res = append(res, r)
			}
		}
	}
	return res
}

// CountBySeverity counts results per normalized level.
func (sl *SarifLog) CountBySeverity() map[string]int {
	counts := make(map[string]int, len(SarifLevels))
	for _, r := range sl.Results() {
		counts[r.Severity()] += 1
	}
	return counts
}
