package server

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ademuri/spotify-insights/internal/analysis"
	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/metrics"
)

type dashboardView struct {
	KPIs      analysis.KPIs
	TopTracks []analysis.TrackRow
	PlotURL   string
}

type featureField struct {
	Name  string
	Label string
	Value string
}

type simulatorView struct {
	Fields     []featureField
	Prediction string
}

var featureLabels = map[string]string{
	"spotify_streams":        "Spotify Streams",
	"spotify_playlist_count": "Spotify Playlist Count",
	"spotify_playlist_reach": "Spotify Playlist Reach",
	"spotify_popularity":     "Spotify Popularity",
	"youtube_views":          "YouTube Views",
	"youtube_likes":          "YouTube Likes",
	"tiktok_posts":           "TikTok Posts",
	"tiktok_views":           "TikTok Views",
	"shazam_counts":          "Shazam Counts",
	"airplay_spins":          "AirPlay Spins",
	"days_since_release":     "Days Since Release",
	"explicit_track":         "Explicit Track (0 or 1)",
}

// ParseFeature reads one submitted value. Blank or non-numeric input is
// reported as absent.
func ParseFeature(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseFeatures builds the feature vector from a form. The first missing or
// non-numeric field is returned with the error.
func ParseFeatures(form url.Values) ([]float64, string, error) {
	x := make([]float64, len(config.ModelFeatures))
	for i, name := range config.ModelFeatures {
		v, ok := ParseFeature(form.Get(name))
		if !ok {
			return nil, name, fmt.Errorf("field %s: %q is not a number", name, form.Get(name))
		}
		x[i] = v
	}
	return x, "", nil
}

func fields(form url.Values) []featureField {
	out := make([]featureField, len(config.ModelFeatures))
	for i, name := range config.ModelFeatures {
		out[i] = featureField{Name: name, Label: featureLabels[name], Value: form.Get(name)}
	}
	return out
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.Templates.ExecuteTemplate(&buf, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("rendering template")
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if a.Tracks == nil {
		writeText(w, http.StatusInternalServerError, msgNoData)
		return
	}
	a.render(w, r, "index.html", dashboardView{
		KPIs:      analysis.ComputeKPIs(a.Tracks),
		TopTracks: analysis.TopTracks(a.Tracks, topTracksShown),
		PlotURL:   a.PlotURL,
	})
}

func (a *App) handleSimulator(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "simulator.html", simulatorView{Fields: fields(nil)})
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	if a.Model == nil {
		metrics.RecordPrediction("no_model", 0)
		writeText(w, http.StatusInternalServerError, msgNoModel)
		return
	}
	if a.Limiter != nil && !a.Limiter.Allow() {
		metrics.RecordPrediction("throttled", 0)
		writeText(w, http.StatusTooManyRequests, "Too many predictions, try again shortly.")
		return
	}

	logger := zerolog.Ctx(r.Context())
	view := simulatorView{Fields: fields(nil)}

	if err := r.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("parsing predict form")
		metrics.RecordPrediction("invalid_input", 0)
		view.Prediction = msgBadData
		a.render(w, r, "simulator.html", view)
		return
	}
	view.Fields = fields(r.PostForm)

	x, field, err := ParseFeatures(r.PostForm)
	if err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("rejecting prediction input")
		metrics.RecordPrediction("invalid_input", 0)
		view.Prediction = msgBadData
		a.render(w, r, "simulator.html", view)
		return
	}

	start := time.Now()
	score, err := a.predict(x)
	if err != nil {
		logger.Error().Err(err).Msg("error during prediction")
		metrics.RecordPrediction("error", 0)
		view.Prediction = msgBadData
		a.render(w, r, "simulator.html", view)
		return
	}
	metrics.RecordPrediction("ok", time.Since(start))
	view.Prediction = fmt.Sprintf("%.2f", score)
	a.render(w, r, "simulator.html", view)
}

// predict turns a panic in the model into an error.
func (a *App) predict(x []float64) (score float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("prediction panicked: %v", p)
		}
	}()
	return a.Model.Predict(x)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := "ok"
	if a.Tracks == nil || a.Model == nil {
		body = fmt.Sprintf("degraded: data=%t model=%t", a.Tracks != nil, a.Model != nil)
	}
	writeText(w, http.StatusOK, body)
}
