package dedup

import "testing"

func TestSimilarity_ExactAndEmpty(t *testing.T) {
	t.Parallel()

	if got := Similarity("Let It Be", "let it be"); got != 1 {
		t.Fatalf("case-insensitive match = %v, want 1", got)
	}
	if got := Similarity("", "anything"); got != 0 {
		t.Fatalf("empty input = %v, want 0", got)
	}
	if got := Similarity("   ", "anything"); got != 0 {
		t.Fatalf("blank input = %v, want 0", got)
	}
}

func TestSimilarity_RangeAndSymmetry(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Stairway to Heaven", "Stairway to Heavan"},
		{"The Rolling Stones", "Rolling Stones"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab < 0 || ab > 1 {
			t.Fatalf("Similarity(%q, %q) = %v, out of range", p[0], p[1], ab)
		}
		if ab != ba {
			t.Fatalf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_DisjointStringsScoreZero(t *testing.T) {
	t.Parallel()

	// The underlying LCS distance for strings with no common subsequence
	// exceeds the longer length, so the raw ratio goes negative; the score
	// must clamp at the floor of the contract instead.
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Fatalf("Similarity(abc, xyz) = %v, want 0", got)
	}
	if got := lcsRatio("abc", "xyz"); got != 0 {
		t.Fatalf("lcsRatio(abc, xyz) = %v, want 0", got)
	}
}

func TestSimilarity_LeadingTheVariant(t *testing.T) {
	t.Parallel()

	// Stripping the leading article makes the strings identical, so the
	// best-of-variants score is 1 even though the raw strings differ.
	if got := Similarity("The Rolling Stones", "Rolling Stones"); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestSimilarity_AbbreviationVariant(t *testing.T) {
	t.Parallel()

	if got := Similarity("Simon & Garfunkel", "Simon and Garfunkel"); got != 1 {
		t.Fatalf("ampersand expansion: got %v, want 1", got)
	}
	if got := Similarity("Song ft Artist", "Song featuring Artist"); got != 1 {
		t.Fatalf("ft expansion: got %v, want 1", got)
	}
}

func TestSimilarity_VariantsOnlyImprove(t *testing.T) {
	t.Parallel()

	// The variant passes may only raise the score above the raw LCS
	// ratio, never lower it.
	raw := lcsRatio("the cure", "the curse")
	if got := Similarity("The Cure", "The Curse"); got < raw {
		t.Fatalf("best-of-variants %v dropped below raw ratio %v", got, raw)
	}
}

func TestSimilarity_CloseTyposScoreHigh(t *testing.T) {
	t.Parallel()

	got := Similarity("Stairway to Heaven", "Stairway to Heavan")
	if got < 0.85 {
		t.Fatalf("near-identical titles scored %v, want >= 0.85", got)
	}

	far := Similarity("Bohemian Rhapsody", "Smoke on the Water")
	if far >= 0.85 {
		t.Fatalf("unrelated titles scored %v, want < 0.85", far)
	}
}
