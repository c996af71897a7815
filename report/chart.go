package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/notargets/WeierKernel/bench"
)

const DefaultChartTitle = "Weierstrass integral timings"

// ChartSink renders mean elapsed seconds per backend as a grouped bar chart,
// one group per configuration. Failed results are drawn as gaps.
type ChartSink struct {
	W     io.Writer
	Title string
}

func (s ChartSink) Write(rep *bench.Report) error {
	page := components.NewPage()
	page.PageTitle = s.title()
	page.AddCharts(s.timings(rep))
	if err := page.Render(s.W); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (s ChartSink) title() string {
	if s.Title != "" {
		return s.Title
	}
	return DefaultChartTitle
}

func (s ChartSink) timings(rep *bench.Report) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    s.title(),
			Subtitle: fmt.Sprintf("%d/%d configurations passed", len(rep.Rows)-len(rep.Failures()), len(rep.Rows)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)

	labels := make([]string, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		labels = append(labels, row.Config.Label())
	}
	bar.SetXAxis(labels)

	for i, name := range rep.Backends {
		bar.AddSeries(name, barData(rep.Rows, i))
	}
	return bar
}

func barData(rows []bench.Row, backend int) []opts.BarData {
	data := make([]opts.BarData, 0, len(rows))
	for _, row := range rows {
		r := row.Results[backend]
		if r.Err != nil || math.IsNaN(r.Value) {
			// "-" is echarts' empty value
			data = append(data, opts.BarData{Value: "-"})
			continue
		}
		data = append(data, opts.BarData{Value: r.Elapsed.Seconds()})
	}
	return data
}
