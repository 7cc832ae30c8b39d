// Package clean turns the raw dataset file into the cleaned track table.
package clean

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/dataset"
	"github.com/ademuri/spotify-insights/internal/logging"
)

// ErrRawMissing means there is no raw file to clean. Callers should stop the
// pipeline rather than treat it as a crash.
var ErrRawMissing = errors.New("raw data file not found")

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var headerReplacer = strings.NewReplacer(" ", "_", "(", "", ")", "", "[", "", "]", "")

// Stats counts the rows removed at each step.
type Stats struct {
	RawRows    int
	Garbage    int
	MissingKey int
	BadStreams int
	Duplicates int
	BadDates   int
	Kept       int

	// Unparsed counts non-blank secondary metric cells that failed to parse
	// and were zero filled.
	Unparsed int
}

type Result struct {
	Path    string
	Charset string
	Tracks  []dataset.Track
	Stats   Stats
}

type Pipeline struct {
	GarbagePattern string
	Logger         zerolog.Logger
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		GarbagePattern: config.GarbagePattern,
		Logger:         logging.WithComponent("clean"),
	}
}

// row is a raw record on its way to becoming a Track.
type row struct {
	cells   []string
	key     string
	streams int64
}

// StandardizeColumn normalises a source header.
func StandardizeColumn(name string) string {
	return headerReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// ParseNumber reads a number that may carry thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseStreams(s string) (int64, bool) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if n, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return n, true
	}
	v, ok := ParseNumber(clean)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// ParseDate accepts the date shapes found in the source and returns UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Run cleans rawPath and writes the result to outPath, overwriting it.
func (p *Pipeline) Run(rawPath, outPath string) (*Result, error) {
	data, err := os.ReadFile(rawPath)
	if errors.Is(err, os.ErrNotExist) {
		p.Logger.Error().Str("path", rawPath).Msg("raw data file not found")
		return nil, ErrRawMissing
	}
	if err != nil {
		return nil, fmt.Errorf("reading raw data: %w", err)
	}

	text, charset := Decode(data)
	text, repaired := RepairMojibake(text)
	p.Logger.Info().Str("charset", charset).Int("repaired_lines", repaired).Msg("decoded raw data")

	tracks, stats, err := p.Clean(text)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteCleaned(outPath, tracks); err != nil {
		return nil, fmt.Errorf("saving cleaned data: %w", err)
	}
	p.Logger.Info().Str("path", outPath).Int("rows", stats.Kept).Msg("cleaned data saved")

	return &Result{Path: outPath, Charset: charset, Tracks: tracks, Stats: stats}, nil
}

// Clean applies the row filters to decoded CSV text.
func (p *Pipeline) Clean(text string) ([]dataset.Track, Stats, error) {
	var stats Stats

	garbage, err := regexp.Compile(p.GarbagePattern)
	if err != nil {
		return nil, stats, fmt.Errorf("compiling garbage pattern: %w", err)
	}

	df := dataframe.ReadCSV(strings.NewReader(text),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, stats, fmt.Errorf("parsing raw csv: %w", df.Err)
	}

	records := df.Records()
	index := make(map[string]int)
	for i, name := range records[0] {
		index[StandardizeColumn(name)] = i
	}
	for _, col := range append([]string{"spotify_streams", "release_date"}, config.CriticalColumns...) {
		if _, ok := index[col]; !ok {
			return nil, stats, fmt.Errorf("raw csv: missing column %q", col)
		}
	}
	trackCol, artistCol := index["track"], index["artist"]

	stats.RawRows = len(records) - 1
	rows := make([]row, 0, stats.RawRows)
	for _, cells := range records[1:] {
		if garbage.MatchString(cells[trackCol]) || garbage.MatchString(cells[artistCol]) {
			stats.Garbage++
			continue
		}
		if strings.TrimSpace(cells[trackCol]) == "" || strings.TrimSpace(cells[artistCol]) == "" {
			stats.MissingKey++
			continue
		}
		streams, ok := parseStreams(cells[index["spotify_streams"]])
		if !ok {
			stats.BadStreams++
			continue
		}
		rows = append(rows, row{
			cells:   cells,
			key:     strings.ToLower(strings.TrimSpace(cells[trackCol])),
			streams: streams,
		})
	}
	p.Logger.Debug().Int("garbage", stats.Garbage).Int("missing_key", stats.MissingKey).
		Int("bad_streams", stats.BadStreams).Msg("filtered raw rows")

	// Highest streams first so the first row per key is the one kept.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].streams > rows[j].streams })
	seen := make(map[string]bool, len(rows))
	unique := rows[:0]
	for _, r := range rows {
		if seen[r.key] {
			stats.Duplicates++
			continue
		}
		seen[r.key] = true
		unique = append(unique, r)
	}
	p.Logger.Debug().Int("duplicates", stats.Duplicates).Msg("deduplicated by track name")

	secondary := make(map[string]bool, len(config.SecondaryNumericColumns))
	for _, name := range config.SecondaryNumericColumns {
		secondary[name] = true
	}

	filled := 0
	tracks := make([]dataset.Track, 0, len(unique))
	for _, r := range unique {
		t := dataset.Track{
			Name:           r.cells[trackCol],
			Artist:         r.cells[artistCol],
			SpotifyStreams: r.streams,
		}
		for _, c := range dataset.NumericColumns {
			i, ok := index[c.Name]
			if !ok {
				filled++
				continue
			}
			v, ok := ParseNumber(r.cells[i])
			if !ok {
				if secondary[c.Name] && strings.TrimSpace(r.cells[i]) != "" {
					stats.Unparsed++
				}
				filled++
				v = 0
			}
			*c.Field(&t) = v
		}

		date, ok := ParseDate(r.cells[index["release_date"]])
		if !ok {
			stats.BadDates++
			continue
		}
		t.ReleaseDate = date
		if i, ok := index["album_name"]; ok {
			t.Album = r.cells[i]
		}
		if i, ok := index["isrc"]; ok {
			t.ISRC = r.cells[i]
		}
		tracks = append(tracks, t)
	}
	stats.Kept = len(tracks)
	p.Logger.Debug().Int("bad_dates", stats.BadDates).Int("filled_cells", filled).Int("unparsed", stats.Unparsed).Msg("coerced values")

	if stats.Kept == 0 {
		return nil, stats, fmt.Errorf("no rows survived cleaning: %w", dataset.ErrEmpty)
	}
	return tracks, stats, nil
}
