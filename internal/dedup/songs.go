package dedup

import (
	"sort"
	"strings"
)

// DefaultSongThreshold is the base similarity acceptance threshold for
// song pairs.
const DefaultSongThreshold = 0.85

const (
	scoreCleanedMatch = 0.95
	thresholdRaise    = 0.1
	thresholdCap      = 0.95
	penaltyTrigger    = 0.1
)

// GroupSongs partitions the candidates into duplicate groups. Comparisons
// only happen inside a normalized primary-artist partition: identical
// titles by different artists are not duplicates. Each song lands in at
// most one group, and groups without at least one accepted duplicate are
// discarded.
func GroupSongs(candidates []Song, threshold float64) []SongGroup {
	if threshold <= 0 {
		threshold = DefaultSongThreshold
	}

	partitions := make(map[string][]Song)
	for _, song := range candidates {
		key := NormalizeArtistName(song.PrimaryArtist)
		if key == "" {
			continue
		}
		partitions[key] = append(partitions[key], song)
	}

	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	processed := make(map[int64]struct{})
	var groups []SongGroup

	for _, key := range keys {
		partition := partitions[key]
		sort.Slice(partition, func(i, j int) bool { return partition[i].ID < partition[j].ID })

		for i := range partition {
			canonical := partition[i]
			if _, done := processed[canonical.ID]; done {
				continue
			}
			processed[canonical.ID] = struct{}{}

			group := SongGroup{Canonical: canonical, PartitionKey: key}
			for j := i + 1; j < len(partition); j++ {
				other := partition[j]
				if _, done := processed[other.ID]; done {
					continue
				}
				candidate, ok := classifySongPair(canonical, other, threshold)
				if !ok {
					continue
				}
				group.Duplicates = append(group.Duplicates, candidate)
				processed[other.ID] = struct{}{}
			}

			if len(group.Duplicates) > 0 {
				groups = append(groups, group)
			}
		}
	}

	return groups
}

func classifySongPair(canonical, other Song, threshold float64) (SongCandidate, bool) {
	titleA := strings.TrimSpace(canonical.Title)
	titleB := strings.TrimSpace(other.Title)
	if titleA == "" || titleB == "" {
		return SongCandidate{}, false
	}

	var (
		score     float64
		matchType MatchType
	)
	switch {
	case strings.EqualFold(titleA, titleB):
		matchType = MatchExact
		score = 1.0
	default:
		cleanedA := NormalizeTitle(titleA)
		cleanedB := NormalizeTitle(titleB)
		if cleanedA != "" && cleanedA == cleanedB {
			matchType = MatchCleaned
			score = scoreCleanedMatch
		} else {
			sim := Similarity(titleA, titleB)
			if sim < threshold {
				return SongCandidate{}, false
			}
			matchType = MatchSimilarity
			score = sim
		}
	}

	adjusted, penalty := adjustSongScore(score, canonical, other)

	effective := threshold
	if penalty > penaltyTrigger {
		effective = threshold + thresholdRaise
		if effective > thresholdCap {
			effective = thresholdCap
		}
	}

	// The unclamped adjusted score decides acceptance; the stored score is
	// clamped for display only.
	if adjusted < effective {
		return SongCandidate{}, false
	}

	return SongCandidate{
		Song:      other,
		MatchType: matchType,
		Score:     clamp01(adjusted),
	}, true
}

// adjustSongScore applies metadata corroboration boosts and penalties and
// reports the cumulative penalty so the caller can raise the acceptance
// threshold when metadata disagrees.
func adjustSongScore(score float64, a, b Song) (adjusted, penalty float64) {
	adjusted = score

	if a.ReleaseYear != nil && b.ReleaseYear != nil {
		diff := *a.ReleaseYear - *b.ReleaseYear
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff == 0:
			adjusted += 0.05
		case diff <= 2:
			adjusted += 0.02
		case diff > 5:
			adjusted -= 0.10
			penalty += 0.10
		}
	}

	if a.Album != nil && b.Album != nil {
		sim := Similarity(*a.Album, *b.Album)
		switch {
		case sim > 0.8:
			adjusted += 0.03
		case sim < 0.3:
			adjusted -= 0.05
			penalty += 0.05
		}
	}

	if a.Genre != nil && b.Genre != nil {
		sim := Similarity(*a.Genre, *b.Genre)
		switch {
		case sim > 0.8:
			adjusted += 0.02
		case sim < 0.3:
			adjusted -= 0.03
			penalty += 0.03
		}
	}

	return adjusted, penalty
}
