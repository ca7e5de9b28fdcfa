package bench

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WritePlots renders the report as a single HTML page of line charts.
func WritePlots(report *Report, path string) error {
	page := components.NewPage()
	page.AddCharts(
		throughputChart(report),
		recoveryChart(report),
		workerChart(report),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render plots: %w", err)
	}
	return nil
}

func throughputChart(report *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Throughput vs payload size",
			Subtitle: fmt.Sprintf("k=%d nsym=%d", report.DataSymbols, report.ParitySymbols),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MB/s"}),
	)

	xAxis := make([]string, 0, len(report.Sizes))
	encode := make([]opts.LineData, 0, len(report.Sizes))
	decode := make([]opts.LineData, 0, len(report.Sizes))
	for _, row := range report.Sizes {
		xAxis = append(xAxis, formatBytes(row.PayloadBytes))
		encode = append(encode, opts.LineData{Value: row.EncodeMBps})
		decode = append(decode, opts.LineData{Value: row.DecodeMBps})
	}

	line.SetXAxis(xAxis).
		AddSeries("encode", encode).
		AddSeries("decode", decode)
	return line
}

func recoveryChart(report *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Recovery rate vs errors per block"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "% blocks recovered"}),
	)

	xAxis := make([]string, 0, len(report.ErrorRates))
	recovery := make([]opts.LineData, 0, len(report.ErrorRates))
	for _, row := range report.ErrorRates {
		xAxis = append(xAxis, fmt.Sprintf("%d", row.ErrorsPerBlock))
		recovery = append(recovery, opts.LineData{Value: row.RecoveryPct})
	}

	line.SetXAxis(xAxis).AddSeries("recovered", recovery)
	return line
}

func workerChart(report *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Encode throughput vs workers"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MB/s"}),
	)

	xAxis := make([]string, 0, len(report.Workers))
	encode := make([]opts.LineData, 0, len(report.Workers))
	for _, row := range report.Workers {
		xAxis = append(xAxis, fmt.Sprintf("%d", row.Workers))
		encode = append(encode, opts.LineData{Value: row.EncodeMBps})
	}

	line.SetXAxis(xAxis).AddSeries("encode MB/s", encode)
	return line
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%dMiB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%dKiB", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
