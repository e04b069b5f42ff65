package dedup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultCandidateLimit bounds one run's working set.
	DefaultCandidateLimit = 500
	// DefaultAliasBatchSize is the number of groups committed per
	// transaction.
	DefaultAliasBatchSize = 10

	oracleSkipThreshold     = 0.85
	oracleAcceptConfidence  = 0.70
	fallbackConfidenceFloor = 0.95
)

// SongOptions controls one song deduplication run.
type SongOptions struct {
	Threshold float64
	Limit     int
	BatchSize int
	DryRun    bool
}

// ArtistOptions controls one artist deduplication run.
type ArtistOptions struct {
	Threshold      float64
	Limit          int
	BatchSize      int
	MaxOracleCalls int
	DryRun         bool
}

// Service drives the deduplication pipelines end to end: fetch unaliased
// candidates, group, verify (artists only), write aliases, report.
type Service struct {
	store  Store
	oracle Oracle
	logger zerolog.Logger
}

// NewService builds a Service. The oracle may be nil, in which case artist
// groups are only accepted through the high-similarity fallback.
func NewService(store Store, oracle Oracle, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		oracle: oracle,
		logger: logger.With().Str("component", "dedup").Logger(),
	}
}

// DeduplicateSongs runs the song pipeline. In dry-run mode the full
// decision report is produced without any write.
func (s *Service) DeduplicateSongs(ctx context.Context, opts SongOptions) (*SongReport, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("dedup service is not initialized")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	songs, err := s.store.FetchUnaliasedSongs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unaliased songs: %w", err)
	}

	report := &SongReport{
		DryRun:            opts.DryRun,
		CandidatesFetched: len(songs),
	}

	groups := GroupSongs(songs, opts.Threshold)
	report.Groups = groups
	report.GroupsFound = len(groups)
	for _, group := range groups {
		report.DuplicatesFound += len(group.Duplicates)
		for _, dup := range group.Duplicates {
			report.Matches.add(dup.MatchType)
		}
	}

	s.logger.Info().
		Int("candidates", len(songs)).
		Int("groups", len(groups)).
		Int("duplicates", report.DuplicatesFound).
		Bool("dry_run", opts.DryRun).
		Msg("song grouping complete")

	if opts.DryRun {
		return report, nil
	}

	writer := newAliasWriter(s.store, opts.BatchSize, s.logger)
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			writer.flush(ctx)
			report.AliasesAdded = writer.added
			report.WriteErrors = writer.errors
			return report, err
		}

		songID := group.Canonical.ID
		aliases := songAliasSet(group)
		writer.writeGroup(ctx, "song", songID, func(batch AliasBatch) (int64, error) {
			return batch.InsertSongAliases(ctx, songID, aliases)
		})
	}
	writer.flush(ctx)

	report.AliasesAdded = writer.added
	report.WriteErrors = writer.errors
	return report, nil
}

// DeduplicateArtists runs the artist pipeline, consulting the oracle for
// the highest-confidence groups first until the call budget is exhausted.
func (s *Service) DeduplicateArtists(ctx context.Context, opts ArtistOptions) (*ArtistReport, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("dedup service is not initialized")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	artists, err := s.store.FetchUnaliasedArtists(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unaliased artists: %w", err)
	}

	report := &ArtistReport{
		DryRun:            opts.DryRun,
		CandidatesFetched: len(artists),
	}

	groups := GroupArtists(artists, opts.Threshold)
	report.GroupsFound = len(groups)
	for _, group := range groups {
		report.DuplicatesFound += len(group.Duplicates)
		for _, dup := range group.Duplicates {
			report.Matches.add(dup.MatchType)
		}
	}

	sortArtistGroups(groups)

	writer := newAliasWriter(s.store, opts.BatchSize, s.logger)
	for i := range groups {
		group := &groups[i]
		if err := ctx.Err(); err != nil {
			writer.flush(ctx)
			report.Groups = groups
			report.AliasesAdded = writer.added
			report.WriteErrors = writer.errors
			return report, err
		}

		s.decideArtistGroup(ctx, group, opts, report)
		if !group.Accepted {
			report.GroupsDropped++
			continue
		}
		report.GroupsAccepted++

		if opts.DryRun {
			continue
		}

		artistID := group.Canonical.ID
		aliases := artistAliasSet(group)
		writer.writeGroup(ctx, "artist", artistID, func(batch AliasBatch) (int64, error) {
			return batch.InsertArtistAliases(ctx, artistID, aliases)
		})
	}
	writer.flush(ctx)

	report.Groups = groups
	report.AliasesAdded = writer.added
	report.WriteErrors = writer.errors

	s.logger.Info().
		Int("candidates", len(artists)).
		Int("groups", len(groups)).
		Int("accepted", report.GroupsAccepted).
		Int("oracle_calls", report.OracleCalls).
		Int("oracle_verified", report.OracleVerified).
		Int("fallback_accepted", report.FallbackAccepted).
		Bool("dry_run", opts.DryRun).
		Msg("artist deduplication complete")

	return report, nil
}

// decideArtistGroup settles one group's verification outcome. Groups worth
// an oracle call are judged by the oracle while budget remains; everything
// else goes through the high-similarity fallback.
func (s *Service) decideArtistGroup(ctx context.Context, group *ArtistGroup, opts ArtistOptions, report *ArtistReport) {
	group.CanonicalName = strings.TrimSpace(group.Canonical.Name)

	worthCall := group.MaxConfidence() >= oracleSkipThreshold || group.HasStrongMatch()
	budgetLeft := report.OracleCalls < opts.MaxOracleCalls

	if s.oracle != nil && worthCall && budgetLeft {
		report.OracleCalls++
		verdict, err := s.oracle.Verify(ctx, group.Names())
		if err != nil {
			s.logger.Warn().Err(err).
				Int64("artist_id", group.Canonical.ID).
				Msg("oracle verification unavailable")
			verdict = nil
		}
		if verdict != nil {
			if verdict.SameEntity && verdict.Confidence >= oracleAcceptConfidence {
				group.Accepted = true
				group.VerifiedBy = "oracle"
				group.OracleAliases = verdict.Aliases
				group.Rationale = verdict.Rationale
				if name := strings.TrimSpace(verdict.CanonicalName); name != "" {
					group.CanonicalName = name
				}
				report.OracleVerified++
			} else {
				report.OracleRejected++
			}
			return
		}
		// Verdict unavailable: fall through to the similarity fallback.
	}

	if group.MaxConfidence() >= fallbackConfidenceFloor || group.HasStrongMatch() {
		group.Accepted = true
		group.VerifiedBy = "fallback"
		report.FallbackAccepted++
	}
}

// sortArtistGroups orders groups highest internal confidence first so the
// scarce oracle budget goes to the best candidates, with canonical id as
// the deterministic tie-break.
func sortArtistGroups(groups []ArtistGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		ci, cj := groups[i].MaxConfidence(), groups[j].MaxConfidence()
		if ci != cj {
			return ci > cj
		}
		return groups[i].Canonical.ID < groups[j].Canonical.ID
	})
}

// songAliasSet collects the alias texts for one group: the canonical title
// as a self-alias plus every duplicate title, deduplicated.
func songAliasSet(group SongGroup) []string {
	texts := make([]string, 0, len(group.Duplicates)+1)
	texts = append(texts, group.Canonical.Title)
	for _, dup := range group.Duplicates {
		texts = append(texts, dup.Song.Title)
	}
	return dedupeAliasTexts(texts)
}

// artistAliasSet collects the alias texts for one group: the canonical
// name, every member name, and any oracle-proposed aliases.
func artistAliasSet(group *ArtistGroup) []string {
	texts := make([]string, 0, len(group.Duplicates)+len(group.OracleAliases)+2)
	texts = append(texts, group.Canonical.Name)
	if group.CanonicalName != "" {
		texts = append(texts, group.CanonicalName)
	}
	for _, dup := range group.Duplicates {
		texts = append(texts, dup.Artist.Name)
	}
	texts = append(texts, group.OracleAliases...)
	return dedupeAliasTexts(texts)
}

func dedupeAliasTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// aliasWriter batches alias inserts into short-lived transactions. A
// failure rolls back the in-flight batch only; prior commits stay durable
// and later groups continue in a fresh batch.
type aliasWriter struct {
	store     Store
	logger    zerolog.Logger
	batchSize int

	batch   AliasBatch
	inBatch int
	pending int64

	added  int64
	errors int
}

func newAliasWriter(store Store, batchSize int, logger zerolog.Logger) *aliasWriter {
	if batchSize <= 0 {
		batchSize = DefaultAliasBatchSize
	}
	return &aliasWriter{
		store:     store,
		logger:    logger,
		batchSize: batchSize,
	}
}

func (w *aliasWriter) writeGroup(ctx context.Context, entity string, entityID int64, insert func(AliasBatch) (int64, error)) {
	if w.batch == nil {
		batch, err := w.store.BeginAliasBatch(ctx)
		if err != nil {
			w.errors++
			w.logger.Error().Err(err).Msg("begin alias batch failed")
			return
		}
		w.batch = batch
	}

	inserted, err := insert(w.batch)
	if err != nil {
		w.errors++
		w.logger.Error().Err(err).
			Str("entity", entity).
			Int64("entity_id", entityID).
			Msg("alias insert failed, rolling back batch")
		if rbErr := w.batch.Rollback(ctx); rbErr != nil {
			w.logger.Error().Err(rbErr).Msg("alias batch rollback failed")
		}
		w.batch = nil
		w.inBatch = 0
		w.pending = 0
		return
	}

	w.pending += inserted
	w.inBatch++
	if w.inBatch >= w.batchSize {
		w.flush(ctx)
	}
}

func (w *aliasWriter) flush(ctx context.Context) {
	if w.batch == nil {
		return
	}
	if err := w.batch.Commit(ctx); err != nil {
		w.errors++
		w.logger.Error().Err(err).Msg("alias batch commit failed")
		if rbErr := w.batch.Rollback(ctx); rbErr != nil {
			w.logger.Error().Err(rbErr).Msg("alias batch rollback failed")
		}
	} else {
		w.added += w.pending
	}
	w.batch = nil
	w.inBatch = 0
	w.pending = 0
}
