package report

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/apicurio/workflow-results/internal/summary"
)

const (
	FileNameFailuresSheet = "failures-index.xlsx"

	sheetJobs     = "jobs"
	sheetFailures = "failures"
	sheetFindings = "findings"
)

var sheetHeaders = map[string][]string{
	sheetJobs:     {"Job", "Type", "Configuration", "Status", "Total", "Passed", "Failed", "Skipped", "Findings", "Parse_Error"},
	sheetFailures: {"Job", "Index", "Suite", "Test_Name", "Status", "Message", "Notes_Review"},
	sheetFindings: {"Job", "Scan", "Severity", "Rule", "Message", "Location"},
}

// NewFailuresSheet builds the failures index workbook of a run: one row per
// job, per failing test case and per DAST finding.
func NewFailuresSheet(rs *summary.RunSummary) (*excelize.File, error) {
	sheet := excelize.NewFile()
	for _, name := range []string{sheetJobs, sheetFailures, sheetFindings} {
		if err := createSheet(sheet, name); err != nil {
			_ = sheet.Close()
			return nil, err
		}
	}
	// drop the default sheet created by excelize
	if err := sheet.DeleteSheet("Sheet1"); err != nil {
		log.Debugf("unable to remove default sheet: %v", err)
	}
	if idx, err := sheet.GetSheetIndex(sheetJobs); err == nil {
		sheet.SetActiveSheet(idx)
	}

	jobRow, failRow, findingRow := 2, 2, 2
	for _, jr := range rs.Jobs {
		c := jr.Counts()
		findings := 0
		if jr.DAST != nil {
			findings = jr.DAST.Total
		}
		populateRow(sheet, sheetJobs, jobRow,
			jr.Job.Name, jr.Job.Type.String(), jr.Job.Config.Description, string(jr.Status()),
			c.Total, c.Passed, c.Failed, c.Skipped, findings, jr.ParseError())
		jobRow += 1

		if jr.Integration != nil {
			for idx, f := range jr.Integration.Failures {
				populateRow(sheet, sheetFailures, failRow,
					jr.Job.Name, idx+1, f.Suite, f.Name, string(f.Status), f.Message, "")
				failRow += 1
			}
		}
		if jr.UI != nil {
			idx := 0
			for _, spec := range jr.UI.Specs {
				if spec.Status != "failed" {
					continue
				}
				idx += 1
				populateRow(sheet, sheetFailures, failRow,
					jr.Job.Name, idx, spec.Suite, spec.Title, spec.Status, "", "")
				failRow += 1
			}
		}
		if jr.DAST != nil {
			for _, f := range jr.DAST.Findings {
				populateRow(sheet, sheetFindings, findingRow,
					jr.Job.Name, f.Scan, f.Severity, f.RuleID, f.Message, f.Location)
				findingRow += 1
			}
		}
	}
	return sheet, nil
}

// SaveFailuresSheet writes failures-index.xlsx into the run directory.
func SaveFailuresSheet(runDir string, rs *summary.RunSummary) error {
	sheet, err := NewFailuresSheet(rs)
	if err != nil {
		return err
	}
	defer func() {
		if err := sheet.Close(); err != nil {
			log.Error(err)
		}
	}()

	buf, err := sheet.WriteToBuffer()
	if err != nil {
		return errors.Wrap(err, "unable to serialize failures index")
	}
	sheetFile := filepath.Join(runDir, FileNameFailuresSheet)
	if err := WriteFileAtomic(sheetFile, buf.Bytes(), 0644); err != nil {
		return err
	}
	log.Infof("Failures index written to %s", sheetFile)
	return nil
}

// createSheet creates a sheet with its headers.
func createSheet(sheet *excelize.File, name string) error {
	if _, err := sheet.NewSheet(name); err != nil {
		return errors.Wrapf(err, "unable to create sheet %s", name)
	}
	for col, v := range sheetHeaders[name] {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := sheet.SetCellValue(name, cell, v); err != nil {
			return errors.Wrapf(err, "unable to set header %s", cell)
		}
	}
	return nil
}

// populateRow fills one row, one value per column.
func populateRow(sheet *excelize.File, name string, row int, values ...interface{}) {
	for col, v := range values {
		_ = sheet.SetCellValue(name, fmt.Sprintf("%s%d", columnName(col+1), row), v)
	}
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "A"
	}
	return name
}
