package dedup

import "testing"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestGroupSongs_ExactDuplicate(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "let it be", PrimaryArtist: "The Beatles"},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	group := groups[0]
	if group.Canonical.ID != 1 {
		t.Fatalf("canonical id = %d, want 1", group.Canonical.ID)
	}
	if len(group.Duplicates) != 1 {
		t.Fatalf("got %d duplicates, want 1", len(group.Duplicates))
	}
	dup := group.Duplicates[0]
	if dup.Song.ID != 2 {
		t.Fatalf("duplicate id = %d, want 2", dup.Song.ID)
	}
	if dup.MatchType != MatchExact {
		t.Fatalf("match type = %s, want %s", dup.MatchType, MatchExact)
	}
	if dup.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", dup.Score)
	}
}

func TestGroupSongs_CleanedMatch(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 10, Title: "Let It Be (Remastered 2009)", PrimaryArtist: "The Beatles"},
		{ID: 11, Title: "Let It Be - Single Version", PrimaryArtist: "The Beatles"},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	dup := groups[0].Duplicates[0]
	if dup.MatchType != MatchCleaned {
		t.Fatalf("match type = %s, want %s", dup.MatchType, MatchCleaned)
	}
	if dup.Score < scoreCleanedMatch {
		t.Fatalf("score = %v, want >= %v", dup.Score, scoreCleanedMatch)
	}
}

func TestGroupSongs_DifferentArtistsNeverCompared(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 1, Title: "Hurt", PrimaryArtist: "Nine Inch Nails"},
		{ID: 2, Title: "Hurt", PrimaryArtist: "Johnny Cash"},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 0 {
		t.Fatalf("got %d groups, want 0: identical titles by different artists are not duplicates", len(groups))
	}
}

func TestGroupSongs_MetadataVeto(t *testing.T) {
	t.Parallel()

	// Titles are similar but release years are a decade apart: the -0.10
	// penalty plus the raised threshold must reject the pair.
	songs := []Song{
		{ID: 1, Title: "Stairway to Heaven", PrimaryArtist: "Led Zeppelin", ReleaseYear: intPtr(1971)},
		{ID: 2, Title: "Stairway to Heavan", PrimaryArtist: "Led Zeppelin", ReleaseYear: intPtr(1981)},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 0 {
		t.Fatalf("got %d groups, want 0: year disagreement must veto the match", len(groups))
	}
}

func TestGroupSongs_MetadataBoostKeepsBorderlinePair(t *testing.T) {
	t.Parallel()

	base := Song{ID: 1, Title: "Stairway to Heaven", PrimaryArtist: "Led Zeppelin", ReleaseYear: intPtr(1971), Album: strPtr("Led Zeppelin IV"), Genre: strPtr("rock")}
	variant := Song{ID: 2, Title: "Stairway to Heavan", PrimaryArtist: "Led Zeppelin", ReleaseYear: intPtr(1971), Album: strPtr("Led Zeppelin IV"), Genre: strPtr("rock")}

	groups := GroupSongs([]Song{base, variant}, DefaultSongThreshold)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: agreeing metadata should keep the pair", len(groups))
	}
	dup := groups[0].Duplicates[0]
	if dup.MatchType != MatchSimilarity {
		t.Fatalf("match type = %s, want %s", dup.MatchType, MatchSimilarity)
	}
	if dup.Score > 1 {
		t.Fatalf("stored score = %v, must be clamped to [0, 1]", dup.Score)
	}
}

func TestGroupSongs_EachSongInAtMostOneGroup(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 1, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 2, Title: "Let It Be", PrimaryArtist: "The Beatles"},
		{ID: 3, Title: "Let It Be (Remastered)", PrimaryArtist: "The Beatles"},
		{ID: 4, Title: "Hey Jude", PrimaryArtist: "The Beatles"},
		{ID: 5, Title: "Hey Jude", PrimaryArtist: "The Beatles"},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)

	seen := make(map[int64]int)
	for _, group := range groups {
		seen[group.Canonical.ID]++
		for _, dup := range group.Duplicates {
			seen[dup.Song.ID]++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Fatalf("song %d appears in %d groups, want at most 1", id, count)
		}
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
}

func TestGroupSongs_CanonicalIsLowestID(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 9, Title: "Hey Jude", PrimaryArtist: "The Beatles"},
		{ID: 3, Title: "Hey Jude", PrimaryArtist: "The Beatles"},
		{ID: 7, Title: "hey jude", PrimaryArtist: "The Beatles"},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Canonical.ID != 3 {
		t.Fatalf("canonical id = %d, want 3", groups[0].Canonical.ID)
	}
	if len(groups[0].Duplicates) != 2 {
		t.Fatalf("got %d duplicates, want 2", len(groups[0].Duplicates))
	}
}

func TestGroupSongs_SkipsBlankPartitionKeys(t *testing.T) {
	t.Parallel()

	songs := []Song{
		{ID: 1, Title: "Untitled", PrimaryArtist: "   "},
		{ID: 2, Title: "Untitled", PrimaryArtist: ""},
	}

	groups := GroupSongs(songs, DefaultSongThreshold)
	if len(groups) != 0 {
		t.Fatalf("got %d groups, want 0: blank artists cannot be partitioned", len(groups))
	}
}

func TestAdjustSongScore_YearBoostsAndPenalties(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		yearA       int
		yearB       int
		wantDelta   float64
		wantPenalty float64
	}{
		{"same year", 1990, 1990, 0.05, 0},
		{"within two years", 1990, 1992, 0.02, 0},
		{"three years apart is neutral", 1990, 1993, 0, 0},
		{"far apart", 1990, 2000, -0.10, 0.10},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := Song{ReleaseYear: intPtr(tc.yearA)}
			b := Song{ReleaseYear: intPtr(tc.yearB)}
			adjusted, penalty := adjustSongScore(0.9, a, b)
			if got := adjusted - 0.9; !almostEqual(got, tc.wantDelta) {
				t.Fatalf("delta = %v, want %v", got, tc.wantDelta)
			}
			if !almostEqual(penalty, tc.wantPenalty) {
				t.Fatalf("penalty = %v, want %v", penalty, tc.wantPenalty)
			}
		})
	}
}

func TestAdjustSongScore_MissingMetadataIsNeutral(t *testing.T) {
	t.Parallel()

	adjusted, penalty := adjustSongScore(0.9, Song{}, Song{})
	if adjusted != 0.9 || penalty != 0 {
		t.Fatalf("adjusted = %v penalty = %v, want 0.9 and 0", adjusted, penalty)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
