package db

import (
	"context"
	"fmt"
	"time"
)

// CatalogStats stores top-level catalog row counts.
type CatalogStats struct {
	Songs               int64 `json:"songs"`
	Artists             int64 `json:"artists"`
	SongArtistRelations int64 `json:"song_artist_relations"`
	PrimaryArtists      int64 `json:"primary_artists"`
	FeaturedArtists     int64 `json:"featured_artists"`
	SongAliases         int64 `json:"song_aliases"`
	ArtistAliases       int64 `json:"artist_aliases"`
}

// QueryCatalogStats returns the top-level catalog counts.
func (p *Pool) QueryCatalogStats(ctx context.Context) (*CatalogStats, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM song_metadata) AS songs,
	(SELECT COUNT(*) FROM artist) AS artists,
	(SELECT COUNT(*) FROM song_artist) AS song_artist_relations,
	(SELECT COUNT(*) FROM song_artist WHERE is_primary = TRUE) AS primary_artists,
	(SELECT COUNT(*) FROM song_artist WHERE is_primary = FALSE) AS featured_artists,
	(SELECT COUNT(*) FROM song_alias) AS song_aliases,
	(SELECT COUNT(*) FROM artist_alias) AS artist_aliases
`

	var stats CatalogStats
	if err := p.QueryRow(ctx, query).Scan(
		&stats.Songs,
		&stats.Artists,
		&stats.SongArtistRelations,
		&stats.PrimaryArtists,
		&stats.FeaturedArtists,
		&stats.SongAliases,
		&stats.ArtistAliases,
	); err != nil {
		return nil, fmt.Errorf("query catalog stats: %w", err)
	}
	return &stats, nil
}

// SecondaryStats stores counts about secondary (featured) artist mentions.
type SecondaryStats struct {
	SongsWithSecondary     int64 `json:"songs_with_secondary"`
	UniqueSecondaryCount   int64 `json:"unique_secondary_count"`
	TotalSecondaryMentions int64 `json:"total_secondary_mentions"`
	ExistingInArtistTable  int64 `json:"existing_in_artist_table"`
	MissingFromArtistTable int64 `json:"missing_from_artist_table"`
	MissingRelationships   int64 `json:"missing_relationships"`
}

// QuerySecondaryStats returns counts about secondary-artist coverage.
func (p *Pool) QuerySecondaryStats(ctx context.Context) (*SecondaryStats, error) {
	const query = `
SELECT
	COUNT(DISTINCT sm.id) AS songs_with_secondary,
	COUNT(DISTINCT TRIM(secondary_artist)) AS unique_secondary_count,
	COUNT(*) AS total_secondary_mentions,
	COALESCE(SUM(CASE WHEN a.id IS NOT NULL THEN 1 ELSE 0 END), 0) AS existing_in_artist_table,
	COALESCE(SUM(CASE WHEN a.id IS NULL THEN 1 ELSE 0 END), 0) AS missing_from_artist_table,
	COALESCE(SUM(CASE WHEN sa.song_id IS NULL THEN 1 ELSE 0 END), 0) AS missing_relationships
FROM song_metadata sm
LEFT JOIN LATERAL unnest(string_to_array(sm.artist_n, ',')) AS secondary_artist ON TRUE
LEFT JOIN artist a ON LOWER(TRIM(a.name)) = LOWER(TRIM(secondary_artist))
LEFT JOIN song_artist sa ON sm.id = sa.song_id AND sa.artist_id = a.id AND sa.artist_order > 0
WHERE sm.artist_n IS NOT NULL AND TRIM(sm.artist_n) != ''
`

	var stats SecondaryStats
	if err := p.QueryRow(ctx, query).Scan(
		&stats.SongsWithSecondary,
		&stats.UniqueSecondaryCount,
		&stats.TotalSecondaryMentions,
		&stats.ExistingInArtistTable,
		&stats.MissingFromArtistTable,
		&stats.MissingRelationships,
	); err != nil {
		return nil, fmt.Errorf("query secondary stats: %w", err)
	}
	return &stats, nil
}

// DedupStats stores alias coverage counts.
type DedupStats struct {
	SongAliases           int64 `json:"song_aliases"`
	ArtistAliases         int64 `json:"artist_aliases"`
	SongsWithoutAliases   int64 `json:"songs_without_aliases"`
	CanonicalMappings     int64 `json:"canonical_mappings"`
	ArtistsWithoutAliases int64 `json:"artists_without_aliases"`
}

// QueryDedupStats returns alias coverage counts for the dashboard.
func (p *Pool) QueryDedupStats(ctx context.Context) (*DedupStats, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM song_alias) AS song_aliases,
	(SELECT COUNT(*) FROM artist_alias) AS artist_aliases,
	(SELECT COUNT(*) FROM song_metadata WHERE id NOT IN (SELECT song_id FROM song_alias)) AS songs_without_aliases,
	(SELECT COUNT(DISTINCT canonical_song_id) FROM song_metadata WHERE canonical_song_id IS NOT NULL) AS canonical_mappings,
	(SELECT COUNT(*) FROM artist WHERE id NOT IN (SELECT artist_id FROM artist_alias)) AS artists_without_aliases
`

	var stats DedupStats
	if err := p.QueryRow(ctx, query).Scan(
		&stats.SongAliases,
		&stats.ArtistAliases,
		&stats.SongsWithoutAliases,
		&stats.CanonicalMappings,
		&stats.ArtistsWithoutAliases,
	); err != nil {
		return nil, fmt.Errorf("query dedup stats: %w", err)
	}
	return &stats, nil
}

// DatabaseIssues stores integrity problem counts.
type DatabaseIssues struct {
	OrphanedSongs       int64 `json:"orphaned_songs"`
	MissingPrimary      int64 `json:"missing_primary"`
	InconsistentArtists int64 `json:"inconsistent_artists"`
	DuplicateRelations  int64 `json:"duplicate_relations"`
	OrphanedAliases     int64 `json:"orphaned_aliases"`
	NullValues          int64 `json:"null_values"`
}

// QueryDatabaseIssues returns integrity problem counts.
func (p *Pool) QueryDatabaseIssues(ctx context.Context) (*DatabaseIssues, error) {
	const query = `
SELECT
	(SELECT COUNT(*)
		FROM song_metadata sm
		WHERE NOT EXISTS (SELECT 1 FROM song_artist sa WHERE sa.song_id = sm.id)) AS orphaned_songs,
	(SELECT COUNT(*)
		FROM song_metadata sm
		LEFT JOIN (
			SELECT song_id FROM song_artist WHERE is_primary = TRUE GROUP BY song_id
		) primary_rel ON sm.id = primary_rel.song_id
		WHERE primary_rel.song_id IS NULL) AS missing_primary,
	(SELECT COUNT(*)
		FROM song_metadata sm
		JOIN song_artist sa ON sm.id = sa.song_id AND sa.artist_order = 0
		JOIN artist a ON sa.artist_id = a.id
		WHERE sm.artist_0 IS NOT NULL
			AND TRIM(sm.artist_0) != ''
			AND LOWER(TRIM(sm.artist_0)) != LOWER(TRIM(a.name))
			AND NOT EXISTS (
				SELECT 1 FROM artist_alias aa
				WHERE aa.artist_id = a.id
					AND LOWER(TRIM(aa.alias)) = LOWER(TRIM(sm.artist_0))
			)) AS inconsistent_artists,
	(SELECT COUNT(*) FROM (
		SELECT song_id, artist_id
		FROM song_artist
		GROUP BY song_id, artist_id
		HAVING COUNT(*) > 1
	) AS duplicates) AS duplicate_relations,
	(SELECT COUNT(*)
		FROM song_alias sa
		LEFT JOIN song_metadata sm ON sa.song_id = sm.id
		WHERE sm.id IS NULL) AS orphaned_aliases,
	(SELECT COUNT(*) FROM song_metadata WHERE song IS NULL OR artist_0 IS NULL) AS null_values
`

	var issues DatabaseIssues
	if err := p.QueryRow(ctx, query).Scan(
		&issues.OrphanedSongs,
		&issues.MissingPrimary,
		&issues.InconsistentArtists,
		&issues.DuplicateRelations,
		&issues.OrphanedAliases,
		&issues.NullValues,
	); err != nil {
		return nil, fmt.Errorf("query database issues: %w", err)
	}
	return &issues, nil
}

// RecentSong is one row of the recent songs panel.
type RecentSong struct {
	ID          int64      `json:"id"`
	Song        string     `json:"song"`
	Artist      string     `json:"artist"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ArtistCount int64      `json:"artist_count"`
}

// QueryRecentSongs returns the most recently ingested songs.
func (p *Pool) QueryRecentSongs(ctx context.Context, limit int) ([]RecentSong, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
SELECT
	sm.id,
	COALESCE(sm.song, ''),
	COALESCE(sm.artist_0, ''),
	sm.created_at,
	COUNT(sa.song_id) AS artist_count
FROM song_metadata sm
LEFT JOIN song_artist sa ON sm.id = sa.song_id
GROUP BY sm.id, sm.song, sm.artist_0, sm.created_at
ORDER BY sm.created_at DESC
LIMIT $1
`

	rows, err := p.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent songs: %w", err)
	}
	defer rows.Close()

	songs := make([]RecentSong, 0, limit)
	for rows.Next() {
		var row RecentSong
		if err := rows.Scan(&row.ID, &row.Song, &row.Artist, &row.CreatedAt, &row.ArtistCount); err != nil {
			return nil, fmt.Errorf("scan recent song row: %w", err)
		}
		songs = append(songs, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent song rows: %w", err)
	}
	return songs, nil
}

// TopArtist is one row of the top artists panel.
type TopArtist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SongCount     int64  `json:"song_count"`
	PrimaryCount  int64  `json:"primary_count"`
	FeaturedCount int64  `json:"featured_count"`
}

// QueryTopArtists returns the artists with the most linked songs.
func (p *Pool) QueryTopArtists(ctx context.Context, limit int) ([]TopArtist, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
SELECT
	a.id,
	a.name,
	COUNT(sa.song_id) AS song_count,
	COALESCE(SUM(CASE WHEN sa.is_primary THEN 1 ELSE 0 END), 0) AS primary_count,
	COALESCE(SUM(CASE WHEN NOT sa.is_primary THEN 1 ELSE 0 END), 0) AS featured_count
FROM artist a
JOIN song_artist sa ON a.id = sa.artist_id
GROUP BY a.id, a.name
ORDER BY song_count DESC
LIMIT $1
`

	rows, err := p.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top artists: %w", err)
	}
	defer rows.Close()

	artists := make([]TopArtist, 0, limit)
	for rows.Next() {
		var row TopArtist
		if err := rows.Scan(&row.ID, &row.Name, &row.SongCount, &row.PrimaryCount, &row.FeaturedCount); err != nil {
			return nil, fmt.Errorf("scan top artist row: %w", err)
		}
		artists = append(artists, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top artist rows: %w", err)
	}
	return artists, nil
}

// DistributionBucket is one named bin of a histogram panel.
type DistributionBucket struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Distribution stores the artists-per-song and songs-per-artist histograms.
type Distribution struct {
	ArtistsPerSong []DistributionBucket `json:"artists_per_song"`
	SongsPerArtist []DistributionBucket `json:"songs_per_artist"`
}

// QueryDistribution returns binned artists-per-song and songs-per-artist
// histograms. Empty bins are omitted.
func (p *Pool) QueryDistribution(ctx context.Context) (*Distribution, error) {
	artistCounts, err := p.queryCounts(ctx, `
SELECT COUNT(sa.artist_id) AS artist_count
FROM song_artist sa
GROUP BY sa.song_id
`)
	if err != nil {
		return nil, fmt.Errorf("query artists per song: %w", err)
	}

	songCounts, err := p.queryCounts(ctx, `
SELECT COUNT(sa.song_id) AS song_count
FROM song_artist sa
GROUP BY sa.artist_id
`)
	if err != nil {
		return nil, fmt.Errorf("query songs per artist: %w", err)
	}

	dist := &Distribution{}

	artistBins := []struct {
		name string
		min  int64
		max  int64
	}{
		{"1 artist", 1, 1},
		{"2 artists", 2, 2},
		{"3 artists", 3, 3},
		{"4+ artists", 4, 1 << 62},
	}
	for _, bin := range artistBins {
		var total int64
		for _, count := range artistCounts {
			if count >= bin.min && count <= bin.max {
				total++
			}
		}
		if total > 0 {
			dist.ArtistsPerSong = append(dist.ArtistsPerSong, DistributionBucket{Name: bin.name, Value: total})
		}
	}

	songBins := []struct {
		name string
		min  int64
		max  int64
	}{
		{"1 song", 1, 1},
		{"2-4 songs", 2, 4},
		{"5-9 songs", 5, 9},
		{"10-19 songs", 10, 19},
		{"20+ songs", 20, 1 << 62},
	}
	for _, bin := range songBins {
		var total int64
		for _, count := range songCounts {
			if count >= bin.min && count <= bin.max {
				total++
			}
		}
		if total > 0 {
			dist.SongsPerArtist = append(dist.SongsPerArtist, DistributionBucket{Name: bin.name, Value: total})
		}
	}

	return dist, nil
}

func (p *Pool) queryCounts(ctx context.Context, query string) ([]int64, error) {
	rows, err := p.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []int64
	for rows.Next() {
		var count int64
		if err := rows.Scan(&count); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// YearCount is one row of the release-year distribution.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

// QueryYearDistribution returns song counts per release year.
func (p *Pool) QueryYearDistribution(ctx context.Context) ([]YearCount, error) {
	const query = `
SELECT release_year AS year, COUNT(*) AS count
FROM song_metadata
WHERE release_year IS NOT NULL
GROUP BY release_year
ORDER BY release_year
`

	rows, err := p.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query year distribution: %w", err)
	}
	defer rows.Close()

	var years []YearCount
	for rows.Next() {
		var row YearCount
		if err := rows.Scan(&row.Year, &row.Count); err != nil {
			return nil, fmt.Errorf("scan year distribution row: %w", err)
		}
		years = append(years, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate year distribution rows: %w", err)
	}
	return years, nil
}

// GenreCount is one row of the top genres panel.
type GenreCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// QueryTopGenres returns the most common genres.
func (p *Pool) QueryTopGenres(ctx context.Context, limit int) ([]GenreCount, error) {
	if limit <= 0 {
		limit = 8
	}

	const query = `
SELECT genre_0 AS name, COUNT(*) AS count
FROM song_metadata
WHERE genre_0 IS NOT NULL
GROUP BY genre_0
ORDER BY count DESC
LIMIT $1
`

	rows, err := p.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top genres: %w", err)
	}
	defer rows.Close()

	genres := make([]GenreCount, 0, limit)
	for rows.Next() {
		var row GenreCount
		if err := rows.Scan(&row.Name, &row.Count); err != nil {
			return nil, fmt.Errorf("scan top genre row: %w", err)
		}
		genres = append(genres, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top genre rows: %w", err)
	}
	return genres, nil
}

// HealthScore is the weighted catalog health read model.
type HealthScore struct {
	OverallHealth        float64 `json:"overall_health"`
	CompletenessScore    float64 `json:"completeness_score"`
	DataQualityScore     float64 `json:"data_quality_score"`
	RelationshipScore    float64 `json:"relationship_score"`
	TotalSongs           int64   `json:"total_songs"`
	TotalArtists         int64   `json:"total_artists"`
	PrimaryRelationships int64   `json:"primary_relationships"`
	NullValues           int64   `json:"null_values"`
	OrphanedSongs        int64   `json:"orphaned_songs"`
}

// QueryHealthScore computes the weighted catalog health score.
func (p *Pool) QueryHealthScore(ctx context.Context) (*HealthScore, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM song_metadata) AS total_songs,
	(SELECT COUNT(*) FROM artist) AS total_artists,
	(SELECT COUNT(*) FROM song_artist WHERE is_primary = TRUE) AS primary_relationships,
	(SELECT COUNT(*) FROM song_metadata WHERE song IS NULL OR artist_0 IS NULL) AS null_values,
	(SELECT COUNT(*)
		FROM song_metadata sm
		WHERE NOT EXISTS (SELECT 1 FROM song_artist sa WHERE sa.song_id = sm.id)) AS orphaned_songs
`

	var score HealthScore
	if err := p.QueryRow(ctx, query).Scan(
		&score.TotalSongs,
		&score.TotalArtists,
		&score.PrimaryRelationships,
		&score.NullValues,
		&score.OrphanedSongs,
	); err != nil {
		return nil, fmt.Errorf("query health score: %w", err)
	}

	songs := score.TotalSongs
	if songs < 1 {
		songs = 1
	}

	score.CompletenessScore = float64(score.PrimaryRelationships) / float64(songs) * 100
	score.DataQualityScore = maxFloat(0, 100-float64(score.NullValues)/float64(songs)*100)
	score.RelationshipScore = maxFloat(0, 100-float64(score.OrphanedSongs)/float64(songs)*100)
	score.OverallHealth = score.CompletenessScore*0.4 + score.DataQualityScore*0.3 + score.RelationshipScore*0.3

	return &score, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
