package db

import (
	"context"
	"fmt"
	"strings"

	"vibeset.fm/catalog/internal/dedup"
)

// BeginAliasBatch opens one transaction-scoped alias batch. The batch only
// carries insert-or-ignore statements against the alias tables; no code
// path here can reach song_metadata, artist, or song_artist.
func (p *Pool) BeginAliasBatch(ctx context.Context) (dedup.AliasBatch, error) {
	tx, err := p.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin alias batch: %w", err)
	}
	return &aliasBatch{tx: tx}, nil
}

type aliasBatch struct {
	tx Tx
}

func (b *aliasBatch) InsertSongAliases(ctx context.Context, songID int64, aliases []string) (int64, error) {
	const stmt = `
INSERT INTO song_alias (song_id, alias)
VALUES ($1, $2)
ON CONFLICT (song_id, alias) DO NOTHING
`
	return b.insert(ctx, stmt, songID, aliases)
}

func (b *aliasBatch) InsertArtistAliases(ctx context.Context, artistID int64, aliases []string) (int64, error) {
	const stmt = `
INSERT INTO artist_alias (artist_id, alias)
VALUES ($1, $2)
ON CONFLICT (artist_id, alias) DO NOTHING
`
	return b.insert(ctx, stmt, artistID, aliases)
}

func (b *aliasBatch) insert(ctx context.Context, stmt string, entityID int64, aliases []string) (int64, error) {
	if b == nil || b.tx == nil {
		return 0, fmt.Errorf("alias batch is not initialized")
	}

	var inserted int64
	for _, alias := range aliases {
		trimmed := strings.TrimSpace(alias)
		if trimmed == "" {
			continue
		}
		tag, err := b.tx.Exec(ctx, stmt, entityID, trimmed)
		if err != nil {
			return inserted, fmt.Errorf("insert alias (entity %d, alias %q): %w", entityID, trimmed, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (b *aliasBatch) Commit(ctx context.Context) error {
	if b == nil || b.tx == nil {
		return fmt.Errorf("alias batch is not initialized")
	}
	return b.tx.Commit(ctx)
}

func (b *aliasBatch) Rollback(ctx context.Context) error {
	if b == nil || b.tx == nil {
		return fmt.Errorf("alias batch is not initialized")
	}
	return b.tx.Rollback(ctx)
}
