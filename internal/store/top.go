package store

import (
	"fmt"
)

type ArtistStreamCount struct {
	Artist  string
	Streams int64
	Tracks  int64
}

// GetTopArtistsWithCount ranks artists by summed streams. Ties are broken by
// name. limit <= 0 returns every artist.
func (s *Store) GetTopArtistsWithCount(limit int) ([]ArtistStreamCount, error) {
	query := `
	SELECT Track.artist, SUM(Track.spotify_streams), COUNT(Track.id)
	FROM Track
	GROUP BY Track.artist
	ORDER BY SUM(Track.spotify_streams) DESC, Track.artist ASC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top artists: %w", err)
	}
	defer rows.Close()

	var results []ArtistStreamCount
	for rows.Next() {
		var a ArtistStreamCount
		if err := rows.Scan(&a.Artist, &a.Streams, &a.Tracks); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
