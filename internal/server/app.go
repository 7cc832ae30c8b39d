// Package server is the web dashboard and prediction simulator.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-insights/internal/analysis"
	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/dataset"
	"github.com/ademuri/spotify-insights/internal/metrics"
	"github.com/ademuri/spotify-insights/internal/model"
	"github.com/ademuri/spotify-insights/internal/plot"
)

const (
	msgNoData  = "Error: Cleaned data file not found. Please run the data pipeline first."
	msgNoModel = "Error: Trained model not found. Please run the modeling pipeline first."
	msgBadData = "An error occurred while processing the input data."

	topTracksShown = 10
	predictBurst   = 10
)

// Predictor scores a feature vector in config.ModelFeatures order.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// App holds what the handlers read. It is built once and never mutated, so
// handlers may run concurrently.
type App struct {
	// Tracks is nil when no cleaned table was found.
	Tracks []dataset.Track
	// Model is nil when no trained model was found.
	Model Predictor

	Templates *template.Template
	StaticDir string
	// PlotURL is the dashboard histogram, empty when none was rendered.
	PlotURL string

	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// LoadApp reads the cleaned table and the model from their canonical paths.
// Either may be missing; the matching pages then answer with an error.
func LoadApp(paths config.Paths, predictRate float64, logger zerolog.Logger) (*App, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	app := &App{
		Templates: tmpl,
		StaticDir: filepath.Join(paths.Root, "static"),
		Logger:    logger,
	}
	if predictRate > 0 {
		app.Limiter = rate.NewLimiter(rate.Limit(predictRate), predictBurst)
	}

	tracks, err := dataset.ReadCleaned(paths.CleanedFile())
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Error().Str("path", paths.CleanedFile()).Msg("cleaned data file not found, run the data pipeline first")
	case err != nil:
		return nil, fmt.Errorf("loading cleaned data: %w", err)
	default:
		app.Tracks = tracks
		logger.Info().Int("rows", len(tracks)).Msg("cleaned data loaded")
	}

	ens, err := model.Load(paths.ModelFile())
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Error().Str("path", paths.ModelFile()).Msg("trained model not found, run the modeling pipeline first")
	case err != nil:
		return nil, fmt.Errorf("loading model: %w", err)
	default:
		app.Model = ens
		logger.Info().Int("trees", len(ens.Trees)).Msg("model loaded")
	}

	if app.Tracks != nil {
		out := filepath.Join(paths.StaticPlots, plot.StreamsDistributionFile)
		if err := plot.StreamsDistribution(out, analysis.StreamCounts(app.Tracks)); err != nil {
			logger.Warn().Err(err).Msg("could not render streams distribution")
		} else {
			app.PlotURL = "/static/plots/" + plot.StreamsDistributionFile
		}
	}

	metrics.SetAppState(len(app.Tracks), app.Model != nil)
	return app, nil
}
