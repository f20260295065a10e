// Package report renders the data tracked during an experiment to an
// HTML page of line charts
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series is a named sequence of per-episode values
type Series struct {
	Name string
	Data []float64
}

// NewLine returns a line chart of the argument series plotted against
// the episode number
func NewLine(title string, series ...Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	numEpisodes := 0
	for _, s := range series {
		if len(s.Data) > numEpisodes {
			numEpisodes = len(s.Data)
		}
	}

	episodes := make([]string, numEpisodes)
	for i := range episodes {
		episodes[i] = fmt.Sprintf("%d", i)
	}
	line = line.SetXAxis(episodes)

	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Data))
		for _, v := range s.Data {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(s.Name, items)
	}
	return line
}

// Write renders a page charting the return and the mean trigger
// interval of each episode to w
func Write(w io.Writer, returns, intervals []float64) error {
	page := components.NewPage()
	page.AddCharts(
		NewLine("Episodic return", Series{Name: "return", Data: returns}),
		NewLine("Mean trigger interval",
			Series{Name: "interval", Data: intervals}),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("write: %v", err)
	}
	return nil
}

// WriteFile is like Write but writes the page to the file at path
func WriteFile(path string, returns, intervals []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writeFile: %v", err)
	}

	if err := Write(f, returns, intervals); err != nil {
		f.Close()
		return fmt.Errorf("writeFile: %v", err)
	}
	return f.Close()
}
