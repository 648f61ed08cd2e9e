package report

import (
	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/summary"
	"github.com/apicurio/workflow-results/internal/workflow"
)

const (
	FileNameIndexHTML   = "index.html"
	FileNameSummaryJSON = "summary.json"
)

type summaryPage struct {
	Summary  *summary.RunSummary
	Sections []*summarySection
}

type summarySection struct {
	Type  workflow.JobType
	Title string
	Agg   *summary.TypeSummary
	Jobs  []*summary.JobResult
}

func newSummaryPage(rs *summary.RunSummary) *summaryPage {
	page := &summaryPage{Summary: rs}
	for _, jt := range workflow.JobTypes {
		page.Sections = append(page.Sections, &summarySection{
			Type:  jt,
			Title: jt.Title(),
			Agg:   rs.ByType(jt),
			Jobs:  rs.JobsOf(jt),
		})
	}
	return page
}

// RenderSummary renders the detail page of a run. The output only depends
// on the summary content.
func RenderSummary(rs *summary.RunSummary) ([]byte, error) {
	if rs == nil || rs.Run == nil {
		return nil, errors.New("empty run summary")
	}
	return renderTemplate(TemplateSummaryPage, newSummaryPage(rs))
}

// MarshalSummary encodes the machine-readable summary artifact.
func MarshalSummary(rs *summary.RunSummary) ([]byte, error) {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "unable to process summary data")
	}
	return append(data, '\n'), nil
}

// SaveSummary writes index.html and summary.json into the run directory.
func SaveSummary(runDir string, rs *summary.RunSummary) error {
	page, err := RenderSummary(rs)
	if err != nil {
		return err
	}
	data, err := MarshalSummary(rs)
	if err != nil {
		return err
	}

	htmlFile := filepath.Join(runDir, FileNameIndexHTML)
	if err := WriteFileAtomic(htmlFile, page, 0644); err != nil {
		return err
	}
	log.Infof("Summary page written to %s", htmlFile)

	jsonFile := filepath.Join(runDir, FileNameSummaryJSON)
	if err := WriteFileAtomic(jsonFile, data, 0644); err != nil {
		return err
	}
	log.Debugf("Summary data written to %s", jsonFile)
	return nil
}

// LoadSummary reads a summary.json artifact.
func LoadSummary(data []byte) (*summary.RunSummary, error) {
	rs := &summary.RunSummary{}
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, errors.Wrap(err, "unable to parse summary data")
	}
	if rs.Run == nil || rs.Status == "" {
		return nil, errors.New("summary data without run or status")
	}
	return rs, nil
}
