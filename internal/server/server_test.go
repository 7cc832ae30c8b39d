package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/dataset"
	"github.com/ademuri/spotify-insights/internal/model"
)

type fixedModel struct{ score float64 }

func (m fixedModel) Predict(x []float64) (float64, error) {
	if len(x) != len(config.ModelFeatures) {
		return 0, errors.New("bad length")
	}
	return m.score, nil
}

type panicModel struct{}

func (panicModel) Predict([]float64) (float64, error) { panic("boom") }

func testApp(t *testing.T) *App {
	t.Helper()
	tmpl, err := parseTemplates()
	if err != nil {
		t.Fatalf("parseTemplates() error: %v", err)
	}
	return &App{
		Tracks: []dataset.Track{
			{Name: "Low", Artist: "A", SpotifyStreams: 100},
			{Name: "High", Artist: "B", SpotifyStreams: 300},
			{Name: "Mid", Artist: "A", SpotifyStreams: 200},
		},
		Model:     fixedModel{score: 42.123},
		Templates: tmpl,
		Logger:    zerolog.Nop(),
	}
}

func validForm() url.Values {
	form := url.Values{}
	for _, name := range config.ModelFeatures {
		form.Set(name, "1")
	}
	return form
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	resp := rec.Result()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestDashboard(t *testing.T) {
	resp, body := do(t, NewRouter(testApp(t)), http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d, body %q", resp.StatusCode, body)
	}
	for _, want := range []string{">3<", ">2<", ">200<", ">A<", "High"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Index(body, "High") > strings.Index(body, "Mid") {
		t.Errorf("top tracks are not ordered by streams")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header")
	}
}

func TestDashboardWithoutData(t *testing.T) {
	app := testApp(t)
	app.Tracks = nil
	resp, body := do(t, NewRouter(app), http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if body != msgNoData {
		t.Errorf("body = %q, want %q", body, msgNoData)
	}
}

func TestSimulator(t *testing.T) {
	resp, body := do(t, NewRouter(testApp(t)), http.MethodGet, "/simulator", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, name := range config.ModelFeatures {
		if !strings.Contains(body, `name="`+name+`"`) {
			t.Errorf("form is missing field %s", name)
		}
	}
	if strings.Contains(body, `id="prediction"`) {
		t.Errorf("empty simulator should not show a prediction")
	}
}

func TestPredict(t *testing.T) {
	resp, body := do(t, NewRouter(testApp(t)), http.MethodPost, "/predict", validForm())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %q", resp.StatusCode, body)
	}
	if !strings.Contains(body, ">42.12<") {
		t.Errorf("prediction not rendered with two decimals: %q", body)
	}
}

func TestPredictWithoutModel(t *testing.T) {
	app := testApp(t)
	app.Model = nil
	resp, body := do(t, NewRouter(app), http.MethodPost, "/predict", validForm())
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if body != msgNoModel {
		t.Errorf("body = %q, want %q", body, msgNoModel)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		edit func(url.Values)
	}{
		{"non-numeric", func(f url.Values) { f.Set("youtube_views", "lots") }},
		{"missing", func(f url.Values) { f.Del("shazam_counts") }},
		{"blank", func(f url.Values) { f.Set("explicit_track", " ") }},
		{"nan", func(f url.Values) { f.Set("tiktok_posts", "NaN") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.edit(form)
			resp, body := do(t, NewRouter(testApp(t)), http.MethodPost, "/predict", form)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			if !strings.Contains(body, msgBadData) {
				t.Errorf("body does not carry the generic error")
			}
		})
	}
}

func TestPredictRecoversPanic(t *testing.T) {
	app := testApp(t)
	app.Model = panicModel{}
	resp, body := do(t, NewRouter(app), http.MethodPost, "/predict", validForm())
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, msgBadData) {
		t.Errorf("panic was not turned into the generic error")
	}
}

func TestPredictThrottled(t *testing.T) {
	app := testApp(t)
	app.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	h := NewRouter(app)

	if resp, _ := do(t, h, http.MethodPost, "/predict", validForm()); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, h, http.MethodPost, "/predict", validForm()); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := testApp(t)
	app.Model = nil
	h := NewRouter(app)

	resp, body := do(t, h, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "model=false") {
		t.Errorf("GET /healthz = %d %q", resp.StatusCode, body)
	}

	resp, body = do(t, h, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "spotify_insights_http_requests_total") {
		t.Errorf("GET /metrics did not expose request counters")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/simulator", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	NewRouter(testApp(t)).ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestParseFeature(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 3.5 ", 3.5, true},
		{"-1e3", -1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFeature(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFeature(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadApp(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	app, err := LoadApp(paths, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadApp() on empty root error: %v", err)
	}
	if app.Tracks != nil || app.Model != nil {
		t.Errorf("empty root should load neither data nor model")
	}

	date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tracks := []dataset.Track{
		{Name: "One", Artist: "A", ReleaseDate: date, SpotifyStreams: 1e9},
		{Name: "Two", Artist: "B", ReleaseDate: date, SpotifyStreams: 2e9},
	}
	if err := dataset.WriteCleaned(paths.CleanedFile(), tracks); err != nil {
		t.Fatalf("WriteCleaned() error: %v", err)
	}
	ens := &model.Ensemble{
		Features:  config.ModelFeatures,
		BaseScore: 7,
		Trees:     []model.Tree{{Nodes: []model.Node{{Left: -1, Right: -1, Value: 1}}}},
	}
	if err := model.Save(paths.ModelFile(), ens); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	app, err = LoadApp(paths, 5, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadApp() error: %v", err)
	}
	if len(app.Tracks) != 2 || app.Model == nil || app.Limiter == nil {
		t.Fatalf("LoadApp() = %+v", app)
	}
	if _, err := os.Stat(filepath.Join(paths.StaticPlots, "streams_distribution.png")); err != nil {
		t.Errorf("histogram not rendered: %v", err)
	}

	resp, body := do(t, NewRouter(app), http.MethodPost, "/predict", validForm())
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, ">8.00<") {
		t.Errorf("predict through loaded model = %d %q", resp.StatusCode, body)
	}
	resp, _ = do(t, NewRouter(app), http.MethodGet, app.PlotURL, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET %s status = %d", app.PlotURL, resp.StatusCode)
	}
}
