package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ademuri/spotify-insights/internal/dataset"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "spotify.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

func testTracks() []dataset.Track {
	date := time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)
	return []dataset.Track{
		{Name: "One", Album: "First", Artist: "A", ISRC: "X1", ReleaseDate: date, SpotifyStreams: 100, TrackScore: 10.5, ShazamCounts: 7},
		{Name: "Two", Artist: "B", ReleaseDate: date, SpotifyStreams: 300, ExplicitTrack: 1},
		{Name: "Three", Artist: "A", ReleaseDate: date.AddDate(-1, 0, 0), SpotifyStreams: 200},
	}
}

func TestNewIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "spotify.db")
	for i := 0; i < 2; i++ {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("New() call %d error: %v", i, err)
		}
		s.Close()
	}
}

func TestEnsureSchemaAddsMetricColumns(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	for _, c := range dataset.NumericColumns {
		exists, err := columnExists(s.db, "Track", c.Name)
		if err != nil {
			t.Fatalf("columnExists(%s): %v", c.Name, err)
		}
		if !exists {
			t.Errorf("Track is missing column %s", c.Name)
		}
	}
}

func TestReplaceTracks(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	want := testTracks()
	if err := s.ReplaceTracks(want); err != nil {
		t.Fatalf("ReplaceTracks failed: %v", err)
	}
	got, err := s.GetTracks()
	if err != nil {
		t.Fatalf("GetTracks failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tracks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("track %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// A second load replaces rather than appends.
	if err := s.ReplaceTracks(want[:1]); err != nil {
		t.Fatalf("ReplaceTracks (repeat) failed: %v", err)
	}
	n, err := s.CountTracks()
	if err != nil {
		t.Fatalf("CountTracks failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 track after replace, got %d", n)
	}
	var artists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Artist").Scan(&artists); err != nil {
		t.Fatalf("querying count: %v", err)
	}
	if artists != 1 {
		t.Errorf("Expected 1 artist after replace, got %d", artists)
	}
}

func TestGetTopArtistsWithCount(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	if err := s.ReplaceTracks(testTracks()); err != nil {
		t.Fatalf("ReplaceTracks failed: %v", err)
	}

	got, err := s.GetTopArtistsWithCount(0)
	if err != nil {
		t.Fatalf("GetTopArtistsWithCount failed: %v", err)
	}
	want := []ArtistStreamCount{
		{Artist: "A", Streams: 300, Tracks: 2},
		{Artist: "B", Streams: 300, Tracks: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d artists, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("artist %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	got, err = s.GetTopArtistsWithCount(1)
	if err != nil {
		t.Fatalf("GetTopArtistsWithCount(1) failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 artist with limit, got %d", len(got))
	}
}

func TestTrainingRuns(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	base := time.Date(2025, time.July, 7, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := TrainingRun{
			TrainedAt: base.Add(time.Duration(i) * time.Hour),
			TrainRows: 80,
			TestRows:  20,
			R2:        []float64{0.5, 0.6, 0.7}[i],
			MAE:       3,
			ModelPath: "models/track_score_predictor.json",
		}
		if _, err := s.RecordTrainingRun(run); err != nil {
			t.Fatalf("RecordTrainingRun failed: %v", err)
		}
	}

	runs, err := s.GetTrainingRuns(2)
	if err != nil {
		t.Fatalf("GetTrainingRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if !runs[0].TrainedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Expected newest run first, got %v", runs[0].TrainedAt)
	}
	if runs[0].R2 != 0.7 {
		t.Errorf("Expected R2 0.7, got %v", runs[0].R2)
	}

	all, err := s.GetTrainingRuns(0)
	if err != nil {
		t.Fatalf("GetTrainingRuns(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(all))
	}
}
