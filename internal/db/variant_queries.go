package db

import (
	"context"
	"fmt"
)

// SongVariantRecord is the canonical song row of a variant lookup.
type SongVariantRecord struct {
	ID              int64  `json:"id"`
	Song            string `json:"song"`
	Artist          string `json:"artist"`
	CanonicalSongID *int64 `json:"canonical_song_id,omitempty"`
}

// SiblingSong is another song sharing the same canonical mapping.
type SiblingSong struct {
	ID     int64  `json:"id"`
	Song   string `json:"song"`
	Artist string `json:"artist"`
}

// SongVariants bundles a song with its aliases and canonical siblings.
type SongVariants struct {
	Original SongVariantRecord `json:"original"`
	Aliases  []string          `json:"aliases"`
	Siblings []SiblingSong     `json:"siblings"`
}

// QuerySongVariants returns a song's aliases and sibling songs, or
// ErrNoRows when the song does not exist.
func (p *Pool) QuerySongVariants(ctx context.Context, songID int64) (*SongVariants, error) {
	const originalQuery = `
SELECT id, COALESCE(song, ''), COALESCE(artist_0, ''), canonical_song_id
FROM song_metadata
WHERE id = $1
`

	var variants SongVariants
	if err := p.QueryRow(ctx, originalQuery, songID).Scan(
		&variants.Original.ID,
		&variants.Original.Song,
		&variants.Original.Artist,
		&variants.Original.CanonicalSongID,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query song variant original: %w", err)
	}

	aliases, err := p.queryAliasTexts(ctx, `
SELECT alias
FROM song_alias
WHERE song_id = $1
ORDER BY alias
`, songID)
	if err != nil {
		return nil, fmt.Errorf("query song aliases: %w", err)
	}
	variants.Aliases = aliases

	if variants.Original.CanonicalSongID != nil {
		const siblingQuery = `
SELECT id, COALESCE(song, ''), COALESCE(artist_0, '')
FROM song_metadata
WHERE canonical_song_id = $1 AND id != $2
ORDER BY id
`
		rows, err := p.Query(ctx, siblingQuery, *variants.Original.CanonicalSongID, songID)
		if err != nil {
			return nil, fmt.Errorf("query sibling songs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var sibling SiblingSong
			if err := rows.Scan(&sibling.ID, &sibling.Song, &sibling.Artist); err != nil {
				return nil, fmt.Errorf("scan sibling song row: %w", err)
			}
			variants.Siblings = append(variants.Siblings, sibling)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate sibling song rows: %w", err)
		}
	}

	return &variants, nil
}

// ArtistSongStats summarizes an artist's linked songs.
type ArtistSongStats struct {
	TotalSongs    int64 `json:"total_songs"`
	PrimarySongs  int64 `json:"primary_songs"`
	FeaturedSongs int64 `json:"featured_songs"`
}

// ArtistSampleSong is one sample song of an artist variant lookup.
type ArtistSampleSong struct {
	ID        int64  `json:"id"`
	Song      string `json:"song"`
	IsPrimary bool   `json:"is_primary"`
}

// ArtistVariants bundles an artist with aliases, song stats, and samples.
type ArtistVariants struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Aliases     []string           `json:"aliases"`
	SongStats   ArtistSongStats    `json:"song_stats"`
	SampleSongs []ArtistSampleSong `json:"sample_songs"`
}

// QueryArtistVariants returns an artist's aliases, song stats, and sample
// songs, or ErrNoRows when the artist does not exist.
func (p *Pool) QueryArtistVariants(ctx context.Context, artistID int64) (*ArtistVariants, error) {
	const originalQuery = `
SELECT id, name
FROM artist
WHERE id = $1
`

	var variants ArtistVariants
	if err := p.QueryRow(ctx, originalQuery, artistID).Scan(&variants.ID, &variants.Name); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query artist variant original: %w", err)
	}

	aliases, err := p.queryAliasTexts(ctx, `
SELECT alias
FROM artist_alias
WHERE artist_id = $1
ORDER BY alias
`, artistID)
	if err != nil {
		return nil, fmt.Errorf("query artist aliases: %w", err)
	}
	variants.Aliases = aliases

	const statsQuery = `
SELECT
	COUNT(*) AS total_songs,
	COUNT(*) FILTER (WHERE is_primary = TRUE) AS primary_songs,
	COUNT(*) FILTER (WHERE is_primary = FALSE) AS featured_songs
FROM song_artist
WHERE artist_id = $1
`
	if err := p.QueryRow(ctx, statsQuery, artistID).Scan(
		&variants.SongStats.TotalSongs,
		&variants.SongStats.PrimarySongs,
		&variants.SongStats.FeaturedSongs,
	); err != nil {
		return nil, fmt.Errorf("query artist song stats: %w", err)
	}

	const samplesQuery = `
SELECT sm.id, COALESCE(sm.song, ''), sa.is_primary
FROM song_artist sa
JOIN song_metadata sm ON sa.song_id = sm.id
WHERE sa.artist_id = $1
ORDER BY sa.is_primary DESC, sm.song
LIMIT 10
`
	rows, err := p.Query(ctx, samplesQuery, artistID)
	if err != nil {
		return nil, fmt.Errorf("query artist sample songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sample ArtistSampleSong
		if err := rows.Scan(&sample.ID, &sample.Song, &sample.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan artist sample song row: %w", err)
		}
		variants.SampleSongs = append(variants.SampleSongs, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artist sample song rows: %w", err)
	}

	return &variants, nil
}

func (p *Pool) queryAliasTexts(ctx context.Context, query string, entityID int64) ([]string, error) {
	rows, err := p.Query(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}
