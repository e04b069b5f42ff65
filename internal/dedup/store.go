package dedup

import "context"

// Store abstracts the catalog queries and alias writes the engine needs.
// Fetches must exclude entities that already carry an alias so that
// re-running after a partial failure resumes on the remaining records.
type Store interface {
	FetchUnaliasedSongs(ctx context.Context, limit int) ([]Song, error)
	FetchUnaliasedArtists(ctx context.Context, limit int) ([]ArtistProfile, error)
	BeginAliasBatch(ctx context.Context) (AliasBatch, error)
}

// AliasBatch is one transaction-scoped batch of alias inserts. Inserting an
// existing (id, alias) pair is a no-op; only newly inserted rows count.
// Implementations must not touch any table other than the alias tables.
type AliasBatch interface {
	InsertSongAliases(ctx context.Context, songID int64, aliases []string) (int64, error)
	InsertArtistAliases(ctx context.Context, artistID int64, aliases []string) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Verdict is the oracle's structured judgment on a set of artist name
// variants.
type Verdict struct {
	SameEntity    bool     `json:"same_entity"`
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases"`
	Confidence    float64  `json:"confidence"`
	Rationale     string   `json:"rationale"`
}

// Oracle consults an external reasoning service to decide whether a set of
// artist name variants refers to one entity. Implementations fail soft:
// transport and parse failures surface as an error here, and the caller
// treats any error as "could not verify" rather than aborting the run.
type Oracle interface {
	Verify(ctx context.Context, names []string) (*Verdict, error)
}
