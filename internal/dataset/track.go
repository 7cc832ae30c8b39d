// Package dataset defines the cleaned track schema and its CSV form.
package dataset

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// Track is one row of the cleaned table.
type Track struct {
	Name        string
	Album       string
	Artist      string
	ISRC        string
	ReleaseDate time.Time

	SpotifyStreams int64

	AllTimeRank             float64
	TrackScore              float64
	SpotifyPlaylistCount    float64
	SpotifyPlaylistReach    float64
	SpotifyPopularity       float64
	YouTubeViews            float64
	YouTubeLikes            float64
	TikTokPosts             float64
	TikTokLikes             float64
	TikTokViews             float64
	YouTubePlaylistReach    float64
	AppleMusicPlaylistCount float64
	AirPlaySpins            float64
	SiriusXMSpins           float64
	DeezerPlaylistCount     float64
	DeezerPlaylistReach     float64
	AmazonPlaylistCount     float64
	PandoraStreams          float64
	PandoraTrackStations    float64
	SoundcloudStreams       float64
	ShazamCounts            float64
	TidalPopularity         float64
	ExplicitTrack           float64
}

// NumericColumn binds a standardized column name to its Track field.
type NumericColumn struct {
	Name  string
	Field func(t *Track) *float64
}

// NumericColumns lists every float column of the schema in file order.
// spotify_streams is handled separately because it is integral and required.
var NumericColumns = []NumericColumn{
	{"all_time_rank", func(t *Track) *float64 { return &t.AllTimeRank }},
	{"track_score", func(t *Track) *float64 { return &t.TrackScore }},
	{"spotify_playlist_count", func(t *Track) *float64 { return &t.SpotifyPlaylistCount }},
	{"spotify_playlist_reach", func(t *Track) *float64 { return &t.SpotifyPlaylistReach }},
	{"spotify_popularity", func(t *Track) *float64 { return &t.SpotifyPopularity }},
	{"youtube_views", func(t *Track) *float64 { return &t.YouTubeViews }},
	{"youtube_likes", func(t *Track) *float64 { return &t.YouTubeLikes }},
	{"tiktok_posts", func(t *Track) *float64 { return &t.TikTokPosts }},
	{"tiktok_likes", func(t *Track) *float64 { return &t.TikTokLikes }},
	{"tiktok_views", func(t *Track) *float64 { return &t.TikTokViews }},
	{"youtube_playlist_reach", func(t *Track) *float64 { return &t.YouTubePlaylistReach }},
	{"apple_music_playlist_count", func(t *Track) *float64 { return &t.AppleMusicPlaylistCount }},
	{"airplay_spins", func(t *Track) *float64 { return &t.AirPlaySpins }},
	{"siriusxm_spins", func(t *Track) *float64 { return &t.SiriusXMSpins }},
	{"deezer_playlist_count", func(t *Track) *float64 { return &t.DeezerPlaylistCount }},
	{"deezer_playlist_reach", func(t *Track) *float64 { return &t.DeezerPlaylistReach }},
	{"amazon_playlist_count", func(t *Track) *float64 { return &t.AmazonPlaylistCount }},
	{"pandora_streams", func(t *Track) *float64 { return &t.PandoraStreams }},
	{"pandora_track_stations", func(t *Track) *float64 { return &t.PandoraTrackStations }},
	{"soundcloud_streams", func(t *Track) *float64 { return &t.SoundcloudStreams }},
	{"shazam_counts", func(t *Track) *float64 { return &t.ShazamCounts }},
	{"tidal_popularity", func(t *Track) *float64 { return &t.TidalPopularity }},
	{"explicit_track", func(t *Track) *float64 { return &t.ExplicitTrack }},
}

// DaysSinceRelease is the whole number of days between the release date and ref.
func (t Track) DaysSinceRelease(ref time.Time) float64 {
	return math.Floor(ref.Sub(t.ReleaseDate).Hours() / 24)
}

// Features returns the model feature vector in config.ModelFeatures order.
func (t Track) Features(ref time.Time) []float64 {
	return []float64{
		float64(t.SpotifyStreams),
		t.SpotifyPlaylistCount,
		t.SpotifyPlaylistReach,
		t.SpotifyPopularity,
		t.YouTubeViews,
		t.YouTubeLikes,
		t.TikTokPosts,
		t.TikTokViews,
		t.ShazamCounts,
		t.AirPlaySpins,
		t.DaysSinceRelease(ref),
		t.ExplicitTrack,
	}
}

// NumericColumnByName looks up a numeric column by its cleaned header.
func NumericColumnByName(name string) (NumericColumn, bool) {
	for _, c := range NumericColumns {
		if c.Name == name {
			return c, true
		}
	}
	return NumericColumn{}, false
}
