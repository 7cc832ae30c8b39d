package cmd

import (
	"bytes"
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/model"
)

const rawHeader = "Track,Album Name,Artist,Release Date,ISRC,All Time Rank,Track Score,Spotify Streams,Spotify Playlist Count,YouTube Views,TIDAL Popularity,Explicit Track\n"

// createTestRoot lays out a project root with a raw CSV already downloaded.
func createTestRoot(t *testing.T, rows int) config.Config {
	t.Helper()
	cfg := config.Config{Root: t.TempDir(), KaggleBaseURL: "http://127.0.0.1:1"}
	paths := cfg.Paths()
	if err := paths.Ensure(); err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}

	var b strings.Builder
	b.WriteString(rawHeader)
	for i := 0; i < rows; i++ {
		artist := "Artist A"
		if i%3 == 0 {
			artist = "Artist B"
		}
		fmt.Fprintf(&b, "Song %d,Album %d,%s,2024-01-%02d,ISRC%d,%d,%d.5,\"%d,000\",%d,%d,,%d\n",
			i, i, artist, i%28+1, i, i+1, 100+i*10, 1000-i*37, 50+i, 9000+i*11, i%2)
	}
	if err := os.WriteFile(paths.RawFile(), []byte(b.String()), 0644); err != nil {
		t.Fatalf("writing raw file: %v", err)
	}
	return cfg
}

func smallTrainParams() config.TrainParams {
	params := config.DefaultTrainParams()
	params.NumTrees = 5
	return params
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := createTestRoot(t, 20)
	paths := cfg.Paths()

	if err := runPipeline(context.Background(), cfg, smallTrainParams()); err != nil {
		t.Fatalf("runPipeline() error: %v", err)
	}

	for _, path := range []string{
		paths.CleanedFile(),
		paths.ModelFile(),
		paths.CatalogFile(),
		filepath.Join(paths.ReportPlots, "actual_vs_predicted.png"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	ens, err := model.Load(paths.ModelFile())
	if err != nil {
		t.Fatalf("model.Load() error: %v", err)
	}
	if len(ens.Trees) != 5 {
		t.Errorf("len(Trees) = %d, want 5", len(ens.Trees))
	}

	out := new(bytes.Buffer)
	if err := runRuns(out, cfg, 0); err != nil {
		t.Fatalf("runRuns() error: %v", err)
	}
	if !strings.Contains(out.String(), paths.ModelFile()) {
		t.Errorf("runs output missing model path:\n%s", out.String())
	}
}

func TestPipelineAbortsWithoutRawData(t *testing.T) {
	cfg := config.Config{Root: t.TempDir(), KaggleUser: "user", KaggleKey: "key", KaggleBaseURL: "http://127.0.0.1:1"}

	if err := runPipeline(context.Background(), cfg, smallTrainParams()); err == nil {
		t.Fatal("runPipeline() succeeded with no raw data")
	}
	if _, err := os.Stat(cfg.Paths().ModelFile()); !os.IsNotExist(err) {
		t.Errorf("model should not be written when cleaning fails")
	}
}

func TestTrainWithoutCleanedData(t *testing.T) {
	cfg := config.Config{Root: t.TempDir()}
	_, err := runTrain(cfg, smallTrainParams())
	if err == nil || !strings.Contains(err.Error(), "run the clean step first") {
		t.Errorf("runTrain() error = %v, want missing cleaned dataset", err)
	}
}

func TestSummaryTables(t *testing.T) {
	cfg := createTestRoot(t, 9)
	if _, err := runClean(cfg); err != nil {
		t.Fatalf("runClean() error: %v", err)
	}

	out := new(bytes.Buffer)
	if err := runSummary(out, cfg, 2, "table"); err != nil {
		t.Fatalf("runSummary() error: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Key metrics", "Top 2 tracks", "Top 2 artists", "Artist A", "Song 0"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Song 8") {
		t.Errorf("summary should only list the top 2 tracks:\n%s", got)
	}
}

func TestSummaryYAML(t *testing.T) {
	cfg := createTestRoot(t, 6)
	if _, err := runClean(cfg); err != nil {
		t.Fatalf("runClean() error: %v", err)
	}

	out := new(bytes.Buffer)
	if err := runSummary(out, cfg, 3, "yaml"); err != nil {
		t.Fatalf("runSummary() error: %v", err)
	}
	for _, want := range []string{"kpis:", "total_tracks: 6", "top_tracks:", "top_artists:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("yaml summary missing %q:\n%s", want, out.String())
		}
	}

	if err := runSummary(out, cfg, 3, "xml"); err == nil {
		t.Error("runSummary() accepted an unknown format")
	}
}

func TestSummaryNegativeNumber(t *testing.T) {
	cfg := createTestRoot(t, 3)
	if _, err := runClean(cfg); err != nil {
		t.Fatalf("runClean() error: %v", err)
	}
	for _, format := range []string{"table", "yaml"} {
		if err := runSummary(new(bytes.Buffer), cfg, -1, format); err == nil {
			t.Errorf("runSummary(-1, %q) succeeded, want error", format)
		}
	}
}

func TestSummaryEmptyCatalog(t *testing.T) {
	cfg := config.Config{Root: t.TempDir()}
	if err := runSummary(new(bytes.Buffer), cfg, 10, "table"); err == nil {
		t.Error("runSummary() succeeded on an empty catalogue")
	}
}

func TestTrainParamsFromFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	defaults := config.DefaultTrainParams()
	if got := trainParams(); got != defaults {
		t.Errorf("trainParams() = %+v, want defaults %+v", got, defaults)
	}

	viper.Set("trees", 7)
	viper.Set("seed", int64(99))
	got := trainParams()
	if got.NumTrees != 7 || got.Seed != 99 {
		t.Errorf("trainParams() = %+v, want NumTrees 7 and Seed 99", got)
	}
}

func TestAnalysisString(t *testing.T) {
	a := Analysis{
		results: [][]string{{"Artist", "Streams"}, {"Artist A", "1.000"}},
		summary: "1 artist",
	}
	got := a.String()
	for _, want := range []string{"Artist A", "1.000", "1 artist"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q:\n%s", want, got)
		}
	}
}

func TestSourcesCarryLicenseHeader(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("Glob() error: %v", err)
	}
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments|parser.PackageClauseOnly)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(f.Comments) == 0 {
			t.Errorf("%s: missing license header", name)
			continue
		}
		header := f.Comments[0]
		if !strings.Contains(header.Text(), "Copyright 2020 Google LLC") {
			t.Errorf("%s: first comment is not the license header", name)
		}
		if header.End() >= f.Package {
			t.Errorf("%s: license header does not close before the package clause", name)
		}
	}
}
