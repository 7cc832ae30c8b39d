package analysis

// Summary is the full dashboard view of a cleaned table.
type Summary struct {
	KPIs       KPIs            `yaml:"kpis"`
	TopTracks  []TrackRow      `yaml:"top_tracks"`
	TopArtists []ArtistStreams `yaml:"top_artists"`
}

type KPIs struct {
	TotalTracks       int    `yaml:"total_tracks"`
	TotalArtists      int    `yaml:"total_artists"`
	AverageStreams    string `yaml:"average_streams"`
	MostPopularArtist string `yaml:"most_popular_artist"`
}

// TrackRow is a track projected for display.
type TrackRow struct {
	Track   string `yaml:"track"`
	Artist  string `yaml:"artist"`
	Streams string `yaml:"streams"`
}

type ArtistStreams struct {
	Artist  string `yaml:"artist"`
	Streams int64  `yaml:"streams"`
	Tracks  int    `yaml:"tracks"`
}
