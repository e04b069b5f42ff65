package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type stubBatch struct {
	store        *stubStore
	songInserts  map[int64][]string
	artistInsert map[int64][]string
	insertErr    error
	commitErr    error
	committed    bool
	rolledBack   bool
}

func (b *stubBatch) InsertSongAliases(_ context.Context, songID int64, aliases []string) (int64, error) {
	if b.insertErr != nil {
		return 0, b.insertErr
	}
	b.songInserts[songID] = append([]string(nil), aliases...)
	return int64(len(aliases)), nil
}

func (b *stubBatch) InsertArtistAliases(_ context.Context, artistID int64, aliases []string) (int64, error) {
	if b.insertErr != nil {
		return 0, b.insertErr
	}
	b.artistInsert[artistID] = append([]string(nil), aliases...)
	return int64(len(aliases)), nil
}

func (b *stubBatch) Commit(_ context.Context) error {
	if b.commitErr != nil {
		return b.commitErr
	}
	b.committed = true
	for id, aliases := range b.songInserts {
		b.store.songAliases[id] = aliases
	}
	for id, aliases := range b.artistInsert {
		b.store.artistAliases[id] = aliases
	}
	return nil
}

func (b *stubBatch) Rollback(_ context.Context) error {
	b.rolledBack = true
	return nil
}

type stubStore struct {
	songs   []Song
	artists []ArtistProfile

	fetchErr  error
	insertErr error
	commitErr error

	batches       []*stubBatch
	songAliases   map[int64][]string
	artistAliases map[int64][]string
}

func newStubStore() *stubStore {
	return &stubStore{
		songAliases:   make(map[int64][]string),
		artistAliases: make(map[int64][]string),
	}
}

// FetchUnaliasedSongs mirrors the store contract: a song is a candidate
// only while it has no alias rows of its own and its title is not yet
// recorded as an alias of some canonical song.
func (s *stubStore) FetchUnaliasedSongs(_ context.Context, _ int) ([]Song, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	texts := aliasTextSet(s.songAliases)
	out := make([]Song, 0, len(s.songs))
	for _, song := range s.songs {
		if _, aliased := s.songAliases[song.ID]; aliased {
			continue
		}
		if _, taken := texts[song.Title]; taken {
			continue
		}
		out = append(out, song)
	}
	return out, nil
}

func (s *stubStore) FetchUnaliasedArtists(_ context.Context, _ int) ([]ArtistProfile, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	texts := aliasTextSet(s.artistAliases)
	out := make([]ArtistProfile, 0, len(s.artists))
	for _, artist := range s.artists {
		if _, aliased := s.artistAliases[artist.ID]; aliased {
			continue
		}
		if _, taken := texts[artist.Name]; taken {
			continue
		}
		out = append(out, artist)
	}
	return out, nil
}

func aliasTextSet(aliases map[int64][]string) map[string]struct{} {
	texts := make(map[string]struct{})
	for _, list := range aliases {
		for _, alias := range list {
			texts[alias] = struct{}{}
		}
	}
	return texts
}

func (s *stubStore) BeginAliasBatch(_ context.Context) (AliasBatch, error) {
	batch := &stubBatch{
		store:        s,
		songInserts:  make(map[int64][]string),
		artistInsert: make(map[int64][]string),
		insertErr:    s.insertErr,
		commitErr:    s.commitErr,
	}
	// A fresh batch after a rollback must be able to succeed again.
	s.insertErr = nil
	s.batches = append(s.batches, batch)
	return batch, nil
}

type stubOracle struct {
	calls    int
	verdict  *Verdict
	err      error
	lastSeen []string
}

func (o *stubOracle) Verify(_ context.Context, names []string) (*Verdict, error) {
	o.calls++
	o.lastSeen = names
	if o.err != nil {
		return nil, o.err
	}
	return o.verdict, nil
}

func TestDeduplicateSongs_WritesAliases(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.songs = []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "let it be", PrimaryArtist: "The Beatles"},
	}

	service := NewService(store, nil, zerolog.Nop())
	report, err := service.DeduplicateSongs(context.Background(), SongOptions{})
	if err != nil {
		t.Fatalf("DeduplicateSongs: %v", err)
	}

	if report.GroupsFound != 1 || report.DuplicatesFound != 1 {
		t.Fatalf("groups = %d duplicates = %d, want 1 and 1", report.GroupsFound, report.DuplicatesFound)
	}
	if report.AliasesAdded != 2 {
		t.Fatalf("aliases added = %d, want 2 (self-alias plus duplicate)", report.AliasesAdded)
	}

	aliases, ok := store.songAliases[1]
	if !ok {
		t.Fatal("no aliases written for canonical song 1")
	}
	if len(aliases) != 2 || aliases[0] != "Let It Be" || aliases[1] != "let it be" {
		t.Fatalf("aliases = %v, want canonical self-alias first then the duplicate title", aliases)
	}
}

func TestDeduplicateSongs_SecondRunAddsNothing(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.songs = []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "let it be", PrimaryArtist: "The Beatles"},
		{ID: 3, Title: "LET IT BE", PrimaryArtist: "The Beatles"},
	}

	service := NewService(store, nil, zerolog.Nop())
	first, err := service.DeduplicateSongs(context.Background(), SongOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.AliasesAdded != 3 {
		t.Fatalf("first run aliases added = %d, want 3", first.AliasesAdded)
	}

	// Duplicate members acquire no alias rows of their own; they leave the
	// candidate pool because their titles are now alias texts of the
	// canonical song.
	second, err := service.DeduplicateSongs(context.Background(), SongOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CandidatesFetched != 0 {
		t.Fatalf("second run candidates = %d, want 0", second.CandidatesFetched)
	}
	if second.GroupsFound != 0 || second.AliasesAdded != 0 {
		t.Fatalf("second run groups = %d aliases = %d, want 0 and 0", second.GroupsFound, second.AliasesAdded)
	}
}

func TestDeduplicateSongs_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.songs = []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "let it be", PrimaryArtist: "The Beatles"},
	}

	service := NewService(store, nil, zerolog.Nop())
	report, err := service.DeduplicateSongs(context.Background(), SongOptions{DryRun: true})
	if err != nil {
		t.Fatalf("DeduplicateSongs: %v", err)
	}

	if !report.DryRun {
		t.Fatal("report.DryRun = false, want true")
	}
	if report.GroupsFound != 1 {
		t.Fatalf("groups = %d, want 1", report.GroupsFound)
	}
	if len(store.batches) != 0 {
		t.Fatalf("%d batches opened in dry-run, want 0", len(store.batches))
	}
	if report.AliasesAdded != 0 {
		t.Fatalf("aliases added = %d, want 0", report.AliasesAdded)
	}
}

func TestDeduplicateSongs_InsertFailureRollsBackAndContinues(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.songs = []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "let it be", PrimaryArtist: "The Beatles"},
		{ID: 3, Title: "Hey Jude", PrimaryArtist: "The Beatles"},
		{ID: 4, Title: "hey jude", PrimaryArtist: "The Beatles"},
	}
	store.insertErr = errors.New("constraint violation")

	service := NewService(store, nil, zerolog.Nop())
	report, err := service.DeduplicateSongs(context.Background(), SongOptions{})
	if err != nil {
		t.Fatalf("DeduplicateSongs: %v", err)
	}

	if report.WriteErrors != 1 {
		t.Fatalf("write errors = %d, want 1", report.WriteErrors)
	}
	if len(store.batches) != 2 {
		t.Fatalf("%d batches opened, want 2 (failed batch plus fresh one)", len(store.batches))
	}
	if !store.batches[0].rolledBack {
		t.Fatal("failed batch was not rolled back")
	}
	if _, ok := store.songAliases[3]; !ok {
		t.Fatal("second group was not written after the first batch failed")
	}
	if report.AliasesAdded != 2 {
		t.Fatalf("aliases added = %d, want 2 from the surviving group", report.AliasesAdded)
	}
}

func TestDeduplicateSongs_FetchErrorAborts(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.fetchErr = errors.New("connection refused")

	service := NewService(store, nil, zerolog.Nop())
	if _, err := service.DeduplicateSongs(context.Background(), SongOptions{}); err == nil {
		t.Fatal("expected error when the candidate fetch fails")
	}
}

func TestDeduplicateArtists_OracleVerifies(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}
	oracle := &stubOracle{verdict: &Verdict{
		SameEntity:    true,
		CanonicalName: "Daft Punk",
		Aliases:       []string{"DaftPunk"},
		Confidence:    0.93,
		Rationale:     "same duo",
	}}

	service := NewService(store, oracle, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{MaxOracleCalls: 10})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	if report.OracleCalls != 1 || report.OracleVerified != 1 {
		t.Fatalf("oracle calls = %d verified = %d, want 1 and 1", report.OracleCalls, report.OracleVerified)
	}
	if report.GroupsAccepted != 1 {
		t.Fatalf("groups accepted = %d, want 1", report.GroupsAccepted)
	}
	if len(oracle.lastSeen) != 2 {
		t.Fatalf("oracle saw %d names, want 2", len(oracle.lastSeen))
	}

	aliases, ok := store.artistAliases[1]
	if !ok {
		t.Fatal("no aliases written for canonical artist 1")
	}
	found := false
	for _, alias := range aliases {
		if alias == "DaftPunk" {
			found = true
		}
	}
	if !found {
		t.Fatalf("aliases = %v, want oracle-proposed alias included", aliases)
	}
}

func TestDeduplicateArtists_OracleRejectionDropsGroup(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}
	oracle := &stubOracle{verdict: &Verdict{SameEntity: false, Confidence: 0.9}}

	service := NewService(store, oracle, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{MaxOracleCalls: 10})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	// A negative verdict is final: the fallback must not resurrect the
	// group even though the pair is an exact match.
	if report.OracleRejected != 1 {
		t.Fatalf("oracle rejected = %d, want 1", report.OracleRejected)
	}
	if report.GroupsAccepted != 0 || report.FallbackAccepted != 0 {
		t.Fatalf("accepted = %d fallback = %d, want 0 and 0", report.GroupsAccepted, report.FallbackAccepted)
	}
	if len(store.artistAliases) != 0 {
		t.Fatalf("aliases written = %v, want none", store.artistAliases)
	}
}

func TestDeduplicateArtists_LowConfidenceVerdictDropsGroup(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}
	oracle := &stubOracle{verdict: &Verdict{SameEntity: true, Confidence: 0.5}}

	service := NewService(store, oracle, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{MaxOracleCalls: 10})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	if report.OracleRejected != 1 || report.GroupsAccepted != 0 {
		t.Fatalf("rejected = %d accepted = %d, want 1 and 0", report.OracleRejected, report.GroupsAccepted)
	}
}

func TestDeduplicateArtists_OracleFailureFallsBack(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}
	oracle := &stubOracle{err: errors.New("endpoint unreachable")}

	service := NewService(store, oracle, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{MaxOracleCalls: 10})
	if err != nil {
		t.Fatalf("DeduplicateArtists must not fail when the oracle is down: %v", err)
	}

	// Exact match qualifies for the fallback, so the run still completes
	// with the group accepted.
	if report.OracleCalls != 1 {
		t.Fatalf("oracle calls = %d, want 1", report.OracleCalls)
	}
	if report.FallbackAccepted != 1 || report.GroupsAccepted != 1 {
		t.Fatalf("fallback = %d accepted = %d, want 1 and 1", report.FallbackAccepted, report.GroupsAccepted)
	}
	if report.Groups[0].VerifiedBy != "fallback" {
		t.Fatalf("verified by = %q, want fallback", report.Groups[0].VerifiedBy)
	}
}

func TestDeduplicateArtists_NilOracleUsesFallback(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}

	service := NewService(store, nil, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	if report.OracleCalls != 0 {
		t.Fatalf("oracle calls = %d, want 0 without an oracle", report.OracleCalls)
	}
	if report.FallbackAccepted != 1 {
		t.Fatalf("fallback accepted = %d, want 1", report.FallbackAccepted)
	}
}

func TestDeduplicateArtists_BudgetLimitsOracleCalls(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
		{ID: 3, Name: "Radiohead", SongCount: 9},
		{ID: 4, Name: "radiohead", SongCount: 2},
		{ID: 5, Name: "Queen", SongCount: 15},
		{ID: 6, Name: "queen", SongCount: 4},
	}
	oracle := &stubOracle{verdict: &Verdict{SameEntity: true, Confidence: 0.95}}

	service := NewService(store, oracle, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{MaxOracleCalls: 2})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	if report.OracleCalls != 2 {
		t.Fatalf("oracle calls = %d, want exactly the budget of 2", report.OracleCalls)
	}
	// The third group still gets through on the exact-match fallback.
	if report.GroupsAccepted != 3 {
		t.Fatalf("groups accepted = %d, want 3", report.GroupsAccepted)
	}
	if report.FallbackAccepted != 1 {
		t.Fatalf("fallback accepted = %d, want 1", report.FallbackAccepted)
	}
}

func TestDeduplicateArtists_SecondRunAddsNothing(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}

	service := NewService(store, nil, zerolog.Nop())
	first, err := service.DeduplicateArtists(context.Background(), ArtistOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.AliasesAdded != 2 {
		t.Fatalf("first run aliases added = %d, want 2", first.AliasesAdded)
	}

	second, err := service.DeduplicateArtists(context.Background(), ArtistOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CandidatesFetched != 0 || second.AliasesAdded != 0 {
		t.Fatalf("second run candidates = %d aliases = %d, want 0 and 0", second.CandidatesFetched, second.AliasesAdded)
	}
}

func TestDeduplicateArtists_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.artists = []ArtistProfile{
		{ID: 1, Name: "Daft Punk", SongCount: 12},
		{ID: 2, Name: "daft punk", SongCount: 3},
	}

	service := NewService(store, nil, zerolog.Nop())
	report, err := service.DeduplicateArtists(context.Background(), ArtistOptions{DryRun: true})
	if err != nil {
		t.Fatalf("DeduplicateArtists: %v", err)
	}

	if report.GroupsAccepted != 1 {
		t.Fatalf("groups accepted = %d, want 1", report.GroupsAccepted)
	}
	if len(store.batches) != 0 {
		t.Fatalf("%d batches opened in dry-run, want 0", len(store.batches))
	}
}

func TestSortArtistGroups_HighestConfidenceFirst(t *testing.T) {
	t.Parallel()

	groups := []ArtistGroup{
		{Canonical: ArtistProfile{ID: 3}, Duplicates: []ArtistCandidate{{Confidence: 0.85}}},
		{Canonical: ArtistProfile{ID: 1}, Duplicates: []ArtistCandidate{{Confidence: 0.95}}},
		{Canonical: ArtistProfile{ID: 2}, Duplicates: []ArtistCandidate{{Confidence: 0.95}}},
	}

	sortArtistGroups(groups)

	wantOrder := []int64{1, 2, 3}
	for i, want := range wantOrder {
		if groups[i].Canonical.ID != want {
			t.Fatalf("groups[%d].Canonical.ID = %d, want %d", i, groups[i].Canonical.ID, want)
		}
	}
}

func TestDedupeAliasTexts(t *testing.T) {
	t.Parallel()

	got := dedupeAliasTexts([]string{"A", " A ", "", "B", "A", "  "})
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("dedupeAliasTexts = %v, want [A B]", got)
	}
}
