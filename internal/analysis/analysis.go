// Package analysis computes the dashboard figures from the cleaned table.
// Everything here is a pure function of its input.
package analysis

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ademuri/spotify-insights/internal/dataset"
)

// Numbers are grouped with "." as the thousands separator.
var printer = message.NewPrinter(language.German)

// FormatCount renders n with "." between groups of three digits.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// ComputeKPIs summarises the table. The mean is rounded half to even.
func ComputeKPIs(tracks []dataset.Track) KPIs {
	k := KPIs{
		TotalTracks:    len(tracks),
		AverageStreams: FormatCount(0),
	}
	if len(tracks) == 0 {
		return k
	}

	var sum float64
	for _, t := range tracks {
		sum += float64(t.SpotifyStreams)
	}
	k.AverageStreams = FormatCount(int64(math.RoundToEven(sum / float64(len(tracks)))))

	totals := ArtistTotals(tracks)
	k.TotalArtists = len(totals)
	k.MostPopularArtist = totals[0].Artist
	return k
}

// ArtistTotals sums streams per artist, highest first. Equal totals are
// ordered by artist name.
func ArtistTotals(tracks []dataset.Track) []ArtistStreams {
	byArtist := make(map[string]*ArtistStreams)
	for _, t := range tracks {
		a, ok := byArtist[t.Artist]
		if !ok {
			a = &ArtistStreams{Artist: t.Artist}
			byArtist[t.Artist] = a
		}
		a.Streams += t.SpotifyStreams
		a.Tracks++
	}

	totals := make([]ArtistStreams, 0, len(byArtist))
	for _, a := range byArtist {
		totals = append(totals, *a)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Streams != totals[j].Streams {
			return totals[i].Streams > totals[j].Streams
		}
		return totals[i].Artist < totals[j].Artist
	})
	return totals
}

// TopTracks returns the n most streamed tracks. Ties keep table order.
// Negative n is treated as 0.
func TopTracks(tracks []dataset.Track, n int) []TrackRow {
	n = max(n, 0)
	sorted := make([]dataset.Track, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SpotifyStreams > sorted[j].SpotifyStreams
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}

	rows := make([]TrackRow, 0, len(sorted))
	for _, t := range sorted {
		rows = append(rows, TrackRow{
			Track:   t.Name,
			Artist:  t.Artist,
			Streams: FormatCount(t.SpotifyStreams),
		})
	}
	return rows
}

func Summarize(tracks []dataset.Track, n int) Summary {
	n = max(n, 0)
	artists := ArtistTotals(tracks)
	if n < len(artists) {
		artists = artists[:n]
	}
	return Summary{
		KPIs:       ComputeKPIs(tracks),
		TopTracks:  TopTracks(tracks, n),
		TopArtists: artists,
	}
}

// StreamCounts returns the stream count of every track, for histograms.
func StreamCounts(tracks []dataset.Track) []float64 {
	out := make([]float64, len(tracks))
	for i, t := range tracks {
		out[i] = float64(t.SpotifyStreams)
	}
	return out
}
