package dedup

// MatchType classifies how two candidates were judged similar.
type MatchType string

const (
	MatchExact      MatchType = "exact_match"
	MatchCleaned    MatchType = "cleaned_match"
	MatchSimilarity MatchType = "similarity_match"
)

// Song is one catalog song candidate. The engine never mutates songs; it
// only attaches alias rows to them.
type Song struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	PrimaryArtist    string   `json:"primary_artist"`
	SecondaryArtists []string `json:"secondary_artists,omitempty"`
	ReleaseYear      *int     `json:"release_year,omitempty"`
	Album            *string  `json:"album,omitempty"`
	Genre            *string  `json:"genre,omitempty"`
}

// ArtistProfile is one artist candidate enriched with catalog metadata used
// for corroboration. Only artists with at least one linked song are fetched.
type ArtistProfile struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	SongCount int      `json:"song_count"`
	FirstYear *int     `json:"first_year,omitempty"`
	LastYear  *int     `json:"last_year,omitempty"`
	Genres    []string `json:"genres,omitempty"`
}

// SongCandidate is one accepted duplicate inside a song group.
type SongCandidate struct {
	Song      Song      `json:"song"`
	MatchType MatchType `json:"match_type"`
	Score     float64   `json:"score"`
}

// SongGroup is one transient duplicate group. The canonical song is the
// lowest-id member of its partition and is never modified.
type SongGroup struct {
	Canonical    Song            `json:"canonical"`
	PartitionKey string          `json:"partition_key"`
	Duplicates   []SongCandidate `json:"duplicates"`
}

// ArtistCandidate is one accepted duplicate inside an artist group.
type ArtistCandidate struct {
	Artist     ArtistProfile `json:"artist"`
	MatchType  MatchType     `json:"match_type"`
	Confidence float64       `json:"confidence"`
}

// ArtistGroup is one transient artist duplicate group, annotated with the
// verification outcome once the oracle stage has run.
type ArtistGroup struct {
	Canonical  ArtistProfile     `json:"canonical"`
	Duplicates []ArtistCandidate `json:"duplicates"`

	Accepted      bool     `json:"accepted"`
	VerifiedBy    string   `json:"verified_by,omitempty"` // "oracle" or "fallback"
	CanonicalName string   `json:"canonical_name,omitempty"`
	OracleAliases []string `json:"oracle_aliases,omitempty"`
	Rationale     string   `json:"rationale,omitempty"`
}

// MaxConfidence returns the highest pairwise confidence in the group.
func (g *ArtistGroup) MaxConfidence() float64 {
	var best float64
	for _, d := range g.Duplicates {
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best
}

// HasStrongMatch reports whether any pairing is an exact or cleaned match.
func (g *ArtistGroup) HasStrongMatch() bool {
	for _, d := range g.Duplicates {
		if d.MatchType == MatchExact || d.MatchType == MatchCleaned {
			return true
		}
	}
	return false
}

// Names returns the canonical name followed by every duplicate name.
func (g *ArtistGroup) Names() []string {
	names := make([]string, 0, len(g.Duplicates)+1)
	names = append(names, g.Canonical.Name)
	for _, d := range g.Duplicates {
		names = append(names, d.Artist.Name)
	}
	return names
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
