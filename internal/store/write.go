package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ademuri/spotify-insights/internal/dataset"
)

// TrainingRun is one recorded model fit.
type TrainingRun struct {
	ID        int64
	TrainedAt time.Time
	TrainRows int
	TestRows  int
	R2        float64
	MAE       float64
	ModelPath string
}

// ReplaceTracks swaps the catalogue contents for tracks in one transaction.
func (s *Store) ReplaceTracks(tracks []dataset.Track) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM Track"); err != nil {
		return fmt.Errorf("clearing tracks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM Artist"); err != nil {
		return fmt.Errorf("clearing artists: %w", err)
	}

	insert, err := tx.Prepare(insertTrackQuery())
	if err != nil {
		return fmt.Errorf("preparing track insert: %w", err)
	}
	defer insert.Close()

	for i := range tracks {
		t := &tracks[i]
		if err := createArtist(tx, t.Artist); err != nil {
			return err
		}
		args := []interface{}{t.Name, t.Album, t.Artist, t.ISRC, t.ReleaseDate.Format(dataset.DateLayout), t.SpotifyStreams}
		for _, c := range dataset.NumericColumns {
			args = append(args, *c.Field(t))
		}
		if _, err := insert.Exec(args...); err != nil {
			return fmt.Errorf("inserting track %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertTrackQuery() string {
	cols := []string{"name", "album", "artist", "isrc", "release_date", "spotify_streams"}
	for _, c := range dataset.NumericColumns {
		cols = append(cols, c.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO Track (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)
}

func createArtist(tx *sql.Tx, name string) error {
	if _, err := tx.Exec("INSERT OR IGNORE INTO Artist (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("inserting artist %q: %w", name, err)
	}
	return nil
}

// RecordTrainingRun stores run and returns its id.
func (s *Store) RecordTrainingRun(run TrainingRun) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO TrainingRun (trained_at, train_rows, test_rows, r2, mae, model_path) VALUES (?, ?, ?, ?, ?, ?)",
		run.TrainedAt.UTC(), run.TrainRows, run.TestRows, run.R2, run.MAE, run.ModelPath)
	if err != nil {
		return 0, fmt.Errorf("inserting training run: %w", err)
	}
	return res.LastInsertId()
}
