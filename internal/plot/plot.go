// Package plot renders the diagnostic charts as PNG files.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	ActualVsPredictedFile   = "actual_vs_predicted.png"
	StreamsDistributionFile = "streams_distribution.png"

	histogramBins = 30
)

var (
	width  = 8 * vg.Inch
	height = 6 * vg.Inch
)

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating plot dir: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// ActualVsPredicted draws held-out targets against predictions with the
// identity line for reference.
func ActualVsPredicted(path string, actual, predicted []float64) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return fmt.Errorf("actual vs predicted: %d actual, %d predicted", len(actual), len(predicted))
	}

	p := plot.New()
	p.Title.Text = "Actual vs. Predicted Track Score"
	p.X.Label.Text = "Actual Track Score"
	p.Y.Label.Text = "Predicted Track Score"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(actual))
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 160}

	lo := min(floats.Min(actual), floats.Min(predicted))
	hi := max(floats.Max(actual), floats.Max(predicted))
	line, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("building identity line: %w", err)
	}
	line.LineStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(scatter, line)
	return save(p, path)
}

// StreamsDistribution draws a histogram of stream counts in millions.
func StreamsDistribution(path string, streams []float64) error {
	p, _, err := streamsHistogram(streams)
	if err != nil {
		return err
	}
	return save(p, path)
}

func streamsHistogram(streams []float64) (*plot.Plot, *plotter.Histogram, error) {
	if len(streams) == 0 {
		return nil, nil, fmt.Errorf("streams distribution: no data")
	}

	values := make(plotter.Values, len(streams))
	for i, s := range streams {
		values[i] = s / 1e6
	}

	p := plot.New()
	p.Title.Text = "Distribution of Track Streams (in Millions)"
	p.X.Label.Text = "Streams (Millions)"
	p.Y.Label.Text = "Track Count"

	hist, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return nil, nil, fmt.Errorf("building histogram: %w", err)
	}
	hist.FillColor = color.RGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 255}
	p.Add(hist)
	return p, hist, nil
}
