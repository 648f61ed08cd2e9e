package report

import (
	"bytes"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// Chart ids are fixed so the page is identical across rebuilds.
const (
	chartIDPassRate = "wfr_pass_rate"
	chartIDTests    = "wfr_tests"
)

// NewTrendsPage creates the trends page, runs in chronological order.
func NewTrendsPage(entries []*IndexEntry) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Apicurio Registry QE Trends"

	// entries are newest first
	xAxis := make([]string, 0, len(entries))
	rates := make([]opts.LineData, 0, len(entries))
	passed := make([]opts.BarData, 0, len(entries))
	failed := make([]opts.BarData, 0, len(entries))
	findings := make([]opts.BarData, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		xAxis = append(xAxis, e.Name)
		rates = append(rates, opts.LineData{Value: e.PassRate()})
		passed = append(passed, opts.BarData{Value: e.IntegrationPassed + e.UIPassed})
		failed = append(failed, opts.BarData{
			Value: (e.IntegrationTotal - e.IntegrationPassed) + (e.UITotal - e.UIPassed),
		})
		findings = append(findings, opts.BarData{Value: e.Findings})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: page.PageTitle,
			ChartID:   chartIDPassRate,
			Width:     "1200px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Pass rate",
			Subtitle: "Integration and UI tests, percent",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	)
	line.SetXAxis(xAxis).
		AddSeries("Pass rate %", rates).
		SetSeriesOptions(charts.WithLineChartOpts(
			opts.LineChart{Smooth: false, ShowSymbol: true, SymbolSize: 10, Symbol: "diamond"},
		))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: page.PageTitle,
			ChartID:   chartIDTests,
			Width:     "1200px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Tests and findings per run"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	bar.SetXAxis(xAxis).
		AddSeries("Passed", passed).
		AddSeries("Failed", failed).
		AddSeries("Findings", findings)

	page.AddCharts(line, bar)
	return page
}

// RenderTrends renders the trends page of the index entries.
func RenderTrends(entries []*IndexEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewTrendsPage(entries).Render(&buf); err != nil {
		return nil, errors.Wrap(err, "unable to render trends page")
	}
	return buf.Bytes(), nil
}
