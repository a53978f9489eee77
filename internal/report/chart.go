package report

import (
	"errors"
	"os"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"trade-signal-alerts/internal/model"
)

// ErrNotEnoughData signals too few distinct days to draw a line.
var ErrNotEnoughData = errors.New("report: need at least two days of alerts to chart")

// WriteCountsPNG renders a daily alert-count chart for the offline export
// command. Days are bucketed in the exporter's display timezone.
func (e *Exporter) WriteCountsPNG(path string, records []model.AlertRecord) error {
	counts := make(map[time.Time]float64)
	for _, record := range records {
		local := record.ReceivedAt.In(e.location)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.location)
		counts[day]++
	}
	if len(counts) < 2 {
		return ErrNotEnoughData
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	values := make([]float64, len(days))
	for i, day := range days {
		values[i] = counts[day]
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Alertas por dia",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Alertas",
				XValues: days,
				YValues: values,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
