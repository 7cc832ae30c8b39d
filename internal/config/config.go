// Package config holds the fixed project settings: file layout, dataset
// identity, cleaning patterns and the model contract.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DatasetID = "nelgiriyewithana/most-streamed-spotify-songs-2024"

	RawFileName     = "most_streamed_spotify_songs_2024.csv"
	CleanedFileName = "cleaned_spotify_data_2024.csv"
	ModelFileName   = "track_score_predictor.json"
	CatalogFileName = "spotify.db"

	// GarbagePattern matches characters left behind by a broken decode:
	// the Unicode replacement character and a commonly misdecoded "ý".
	GarbagePattern = `\x{FFFD}|ý`

	TargetColumn = "track_score"
)

// CriticalColumns must be present on every cleaned row.
var CriticalColumns = []string{"track", "artist"}

// SecondaryNumericColumns are coerced after deduplication. Values that do not
// parse stay missing until the final zero fill.
var SecondaryNumericColumns = []string{
	"spotify_playlist_count",
	"spotify_playlist_reach",
	"youtube_views",
	"youtube_likes",
	"tiktok_posts",
	"tiktok_likes",
	"tiktok_views",
	"youtube_playlist_reach",
	"airplay_spins",
	"siriusxm_spins",
	"deezer_playlist_reach",
	"pandora_streams",
	"pandora_track_stations",
	"soundcloud_streams",
	"shazam_counts",
}

// ModelFeatures is the ordered feature vector used for training and prediction.
var ModelFeatures = []string{
	"spotify_streams",
	"spotify_playlist_count",
	"spotify_playlist_reach",
	"spotify_popularity",
	"youtube_views",
	"youtube_likes",
	"tiktok_posts",
	"tiktok_views",
	"shazam_counts",
	"airplay_spins",
	"days_since_release",
	"explicit_track",
}

// ReferenceDate anchors days_since_release. It is fixed so that features do
// not drift with the wall clock.
var ReferenceDate = time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC)

type TrainParams struct {
	NumTrees       int
	LearningRate   float64
	MaxDepth       int
	Subsample      float64
	ColSample      float64
	Lambda         float64
	MinChildWeight float64
	Seed           int64
	TestFraction   float64
}

// DefaultTrainParams mirrors the hyperparameters the published model was
// trained with.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		NumTrees:       1000,
		LearningRate:   0.05,
		MaxDepth:       5,
		Subsample:      0.8,
		ColSample:      0.8,
		Lambda:         1,
		MinChildWeight: 1,
		Seed:           42,
		TestFraction:   0.2,
	}
}

// Paths is the on-disk layout relative to a project root.
type Paths struct {
	Root         string
	RawDir       string
	ProcessedDir string
	ModelsDir    string
	ReportPlots  string
	StaticPlots  string
}

func NewPaths(root string) Paths {
	data := filepath.Join(root, "data")
	return Paths{
		Root:         root,
		RawDir:       filepath.Join(data, "raw"),
		ProcessedDir: filepath.Join(data, "processed"),
		ModelsDir:    filepath.Join(root, "models"),
		ReportPlots:  filepath.Join(root, "reports", "plots"),
		StaticPlots:  filepath.Join(root, "static", "plots"),
	}
}

func (p Paths) RawFile() string     { return filepath.Join(p.RawDir, RawFileName) }
func (p Paths) CleanedFile() string { return filepath.Join(p.ProcessedDir, CleanedFileName) }
func (p Paths) ModelFile() string   { return filepath.Join(p.ModelsDir, ModelFileName) }
func (p Paths) CatalogFile() string { return filepath.Join(p.Root, "data", CatalogFileName) }

// Ensure creates every directory of the layout.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.RawDir, p.ProcessedDir, p.ModelsDir, p.ReportPlots, p.StaticPlots} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Config is the runtime configuration assembled from flags, config file and
// environment.
type Config struct {
	Root string

	// Proxy is only consulted by the dataset download.
	Proxy         string
	KaggleUser    string
	KaggleKey     string
	KaggleBaseURL string

	Listen      string
	PredictRate float64

	LogLevel  string
	LogFormat string
}

func (c Config) Paths() Paths {
	return NewPaths(c.Root)
}
