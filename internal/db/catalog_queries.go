package db

import (
	"context"
	"fmt"
	"strings"

	"vibeset.fm/catalog/internal/dedup"
)

// FetchUnaliasedSongs returns up to limit songs that have not been through
// alias resolution, ordered by id for deterministic canonical selection. A
// song is excluded when it carries alias rows of its own or when its title
// already appears as an alias of some canonical song.
func (p *Pool) FetchUnaliasedSongs(ctx context.Context, limit int) ([]dedup.Song, error) {
	if limit <= 0 {
		limit = dedup.DefaultCandidateLimit
	}

	const query = `
SELECT
	sm.id,
	sm.song,
	sm.artist_0,
	COALESCE(sm.artist_n, ''),
	sm.album,
	sm.release_year,
	sm.genre_0
FROM song_metadata sm
WHERE sm.song IS NOT NULL
	AND sm.artist_0 IS NOT NULL
	AND NOT EXISTS (SELECT 1 FROM song_alias sa WHERE sa.song_id = sm.id)
	AND NOT EXISTS (SELECT 1 FROM song_alias sa2 WHERE sa2.alias = sm.song)
ORDER BY sm.id
LIMIT $1
`

	rows, err := p.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unaliased songs: %w", err)
	}
	defer rows.Close()

	songs := make([]dedup.Song, 0, limit)
	for rows.Next() {
		var (
			song    dedup.Song
			artistN string
		)
		if err := rows.Scan(
			&song.ID,
			&song.Title,
			&song.PrimaryArtist,
			&artistN,
			&song.Album,
			&song.ReleaseYear,
			&song.Genre,
		); err != nil {
			return nil, fmt.Errorf("scan unaliased song row: %w", err)
		}
		song.SecondaryArtists = splitCSV(artistN)
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unaliased song rows: %w", err)
	}

	return songs, nil
}

// FetchUnaliasedArtists returns up to limit artists that have not been
// through alias resolution and have at least one linked song, with
// active-year range and aggregated genres for metadata corroboration.
// Artists whose name is already recorded as an alias are excluded along
// with artists that carry alias rows of their own.
func (p *Pool) FetchUnaliasedArtists(ctx context.Context, limit int) ([]dedup.ArtistProfile, error) {
	if limit <= 0 {
		limit = dedup.DefaultCandidateLimit
	}

	const query = `
SELECT
	a.id,
	a.name,
	COUNT(sa.song_id) AS song_count,
	MIN(sm.release_year) AS first_year,
	MAX(sm.release_year) AS last_year,
	COALESCE(STRING_AGG(DISTINCT sm.genre_0, ',' ORDER BY sm.genre_0), '') AS genres
FROM artist a
JOIN song_artist sa ON sa.artist_id = a.id
JOIN song_metadata sm ON sm.id = sa.song_id
WHERE NOT EXISTS (SELECT 1 FROM artist_alias aa WHERE aa.artist_id = a.id)
	AND NOT EXISTS (SELECT 1 FROM artist_alias aa2 WHERE aa2.alias = a.name)
GROUP BY a.id, a.name
HAVING COUNT(sa.song_id) >= 1
ORDER BY a.id
LIMIT $1
`

	rows, err := p.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unaliased artists: %w", err)
	}
	defer rows.Close()

	artists := make([]dedup.ArtistProfile, 0, limit)
	for rows.Next() {
		var (
			artist dedup.ArtistProfile
			genres string
		)
		if err := rows.Scan(
			&artist.ID,
			&artist.Name,
			&artist.SongCount,
			&artist.FirstYear,
			&artist.LastYear,
			&genres,
		); err != nil {
			return nil, fmt.Errorf("scan unaliased artist row: %w", err)
		}
		artist.Genres = splitCSV(genres)
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unaliased artist rows: %w", err)
	}

	return artists, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
