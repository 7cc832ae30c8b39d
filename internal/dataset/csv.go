package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// ErrEmpty is returned when there are no tracks to write.
var ErrEmpty = errors.New("no tracks")

var textColumns = []string{"track", "album_name", "artist", "release_date", "isrc", "spotify_streams"}

// Columns is the header of a cleaned file.
func Columns() []string {
	cols := append([]string{}, textColumns...)
	for _, c := range NumericColumns {
		cols = append(cols, c.Name)
	}
	return cols
}

// FormatFloat renders a metric with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toRecord(t *Track) []string {
	row := []string{
		t.Name,
		t.Album,
		t.Artist,
		t.ReleaseDate.Format(DateLayout),
		t.ISRC,
		strconv.FormatInt(t.SpotifyStreams, 10),
	}
	for _, c := range NumericColumns {
		row = append(row, FormatFloat(*c.Field(t)))
	}
	return row
}

// WriteCSV writes tracks as a UTF-8 CSV with a fixed column order.
func WriteCSV(w io.Writer, tracks []Track) error {
	if len(tracks) == 0 {
		return ErrEmpty
	}
	records := make([][]string, 0, len(tracks)+1)
	records = append(records, Columns())
	for i := range tracks {
		records = append(records, toRecord(&tracks[i]))
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("building table: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WriteCleaned persists tracks to path, replacing any previous file.
func WriteCleaned(path string, tracks []Track) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, tracks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a cleaned table. Every schema column must be present.
func ReadCSV(r io.Reader) ([]Track, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parsing cleaned csv: %w", df.Err)
	}

	records := df.Records()
	index := make(map[string]int)
	for i, name := range records[0] {
		index[name] = i
	}
	for _, col := range Columns() {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("cleaned csv: missing column %q", col)
		}
	}

	tracks := make([]Track, 0, len(records)-1)
	for line, row := range records[1:] {
		t, err := fromRecord(row, index)
		if err != nil {
			return nil, fmt.Errorf("cleaned csv row %d: %w", line+2, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func fromRecord(row []string, index map[string]int) (Track, error) {
	t := Track{
		Name:   row[index["track"]],
		Album:  row[index["album_name"]],
		Artist: row[index["artist"]],
		ISRC:   row[index["isrc"]],
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(row[index["release_date"]]))
	if err != nil {
		return Track{}, fmt.Errorf("release_date: %w", err)
	}
	t.ReleaseDate = date

	t.SpotifyStreams, err = strconv.ParseInt(strings.TrimSpace(row[index["spotify_streams"]]), 10, 64)
	if err != nil {
		return Track{}, fmt.Errorf("spotify_streams: %w", err)
	}

	for _, c := range NumericColumns {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[index[c.Name]]), 64)
		if err != nil {
			return Track{}, fmt.Errorf("%s: %w", c.Name, err)
		}
		*c.Field(&t) = v
	}
	return t, nil
}

// ReadCleaned loads the cleaned table at path. A missing file is reported
// with an error wrapping os.ErrNotExist.
func ReadCleaned(path string) ([]Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cleaned data: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
