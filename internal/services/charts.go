package services

import (
	"interview-coach/internal/repository"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ScoreTimelineChart builds a line chart of interview scores over time. Final scores are
// drawn as a second series when there are any.
func ScoreTimelineChart(data, finals []repository.TimelineDataPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Interview Score History",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Score",
			Min:  0,
			Max:  10,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	line.AddSeries("Score", lineData(data))
	if len(finals) > 0 {
		line.AddSeries("Final score", lineData(finals))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func lineData(points []repository.TimelineDataPoint) []opts.LineData {
	items := make([]opts.LineData, 0, len(points))
	for _, point := range points {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}
	return items
}
