package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/ademuri/spotify-insights/internal/dataset"
)

// GetTracks returns the catalogue in insertion order.
func (s *Store) GetTracks() ([]dataset.Track, error) {
	cols := []string{"name", "album", "artist", "isrc", "release_date", "spotify_streams"}
	for _, c := range dataset.NumericColumns {
		cols = append(cols, c.Name)
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM Track ORDER BY id", strings.Join(cols, ", ")))
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []dataset.Track
	for rows.Next() {
		var t dataset.Track
		var date string
		dest := []interface{}{&t.Name, &t.Album, &t.Artist, &t.ISRC, &date, &t.SpotifyStreams}
		for _, c := range dataset.NumericColumns {
			dest = append(dest, c.Field(&t))
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		t.ReleaseDate, err = time.Parse(dataset.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing release date %q: %w", date, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *Store) CountTracks() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Track").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}

// GetTrainingRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) GetTrainingRuns(limit int) ([]TrainingRun, error) {
	query := "SELECT id, trained_at, train_rows, test_rows, r2, mae, model_path FROM TrainingRun ORDER BY trained_at DESC, id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying training runs: %w", err)
	}
	defer rows.Close()

	var runs []TrainingRun
	for rows.Next() {
		var r TrainingRun
		if err := rows.Scan(&r.ID, &r.TrainedAt, &r.TrainRows, &r.TestRows, &r.R2, &r.MAE, &r.ModelPath); err != nil {
			return nil, fmt.Errorf("scanning training run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
