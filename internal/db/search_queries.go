package db

import (
	"context"
	"fmt"
	"strings"
)

const minSearchTermLength = 2

// SongSearchResult is one row of a song search.
type SongSearchResult struct {
	ID              int64  `json:"id"`
	Song            string `json:"song"`
	Artist          string `json:"artist"`
	AliasStatus     string `json:"alias_status"`
	CanonicalSongID *int64 `json:"canonical_song_id,omitempty"`
}

// SearchSongs searches songs by title or primary artist. Terms shorter
// than two characters return no results. Title matches sort before
// artist-only matches.
func (p *Pool) SearchSongs(ctx context.Context, term string, limit int) ([]SongSearchResult, error) {
	trimmed := strings.TrimSpace(term)
	if len(trimmed) < minSearchTermLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT DISTINCT
	sm.id,
	sm.song,
	sm.artist_0,
	CASE
		WHEN EXISTS (SELECT 1 FROM song_alias sa WHERE sa.song_id = sm.id)
		THEN 'Has Aliases'
		ELSE 'No Aliases'
	END AS alias_status,
	sm.canonical_song_id,
	CASE
		WHEN LOWER(sm.song) LIKE LOWER($1)
		THEN 1
		ELSE 2
	END AS search_priority
FROM song_metadata sm
WHERE (
	LOWER(sm.song) LIKE LOWER($1)
	OR LOWER(sm.artist_0) LIKE LOWER($1)
)
	AND sm.song IS NOT NULL
	AND sm.artist_0 IS NOT NULL
ORDER BY search_priority, sm.song
LIMIT $2
`

	pattern := "%" + trimmed + "%"
	rows, err := p.Query(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}
	defer rows.Close()

	results := make([]SongSearchResult, 0, limit)
	for rows.Next() {
		var (
			row      SongSearchResult
			priority int
		)
		if err := rows.Scan(&row.ID, &row.Song, &row.Artist, &row.AliasStatus, &row.CanonicalSongID, &priority); err != nil {
			return nil, fmt.Errorf("scan song search row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song search rows: %w", err)
	}
	return results, nil
}

// ArtistSearchResult is one row of an artist search.
type ArtistSearchResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AliasStatus string `json:"alias_status"`
	SongCount   int64  `json:"song_count"`
}

// SearchArtists searches artists by name, with prefix matches sorted
// first.
func (p *Pool) SearchArtists(ctx context.Context, term string, limit int) ([]ArtistSearchResult, error) {
	trimmed := strings.TrimSpace(term)
	if len(trimmed) < minSearchTermLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
SELECT DISTINCT
	a.id,
	a.name,
	CASE
		WHEN EXISTS (SELECT 1 FROM artist_alias aa WHERE aa.artist_id = a.id)
		THEN 'Has Aliases'
		ELSE 'No Aliases'
	END AS alias_status,
	(SELECT COUNT(*) FROM song_artist sa WHERE sa.artist_id = a.id) AS song_count,
	CASE
		WHEN LOWER(a.name) LIKE LOWER($1)
		THEN 1
		ELSE 2
	END AS search_priority
FROM artist a
WHERE LOWER(a.name) LIKE LOWER($2)
ORDER BY search_priority, a.name
LIMIT $3
`

	prefixPattern := strings.ToLower(trimmed) + "%"
	containsPattern := "%" + trimmed + "%"
	rows, err := p.Query(ctx, query, prefixPattern, containsPattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search artists: %w", err)
	}
	defer rows.Close()

	results := make([]ArtistSearchResult, 0, limit)
	for rows.Next() {
		var (
			row      ArtistSearchResult
			priority int
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.AliasStatus, &row.SongCount, &priority); err != nil {
			return nil, fmt.Errorf("scan artist search row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artist search rows: %w", err)
	}
	return results, nil
}
