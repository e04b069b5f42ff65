package dedup

import (
	"sort"
	"strings"
)

// DefaultArtistThreshold is the base similarity acceptance threshold for
// artist pairs.
const DefaultArtistThreshold = 0.8

const (
	metadataBoost        = 0.1
	metadataPenalty      = 0.15
	metadataAgreeCutoff  = 0.7
	metadataVetoedCutoff = 0.3
)

// GroupArtists partitions the candidates into duplicate groups. Unlike
// songs there is no partition key: similar names anywhere in the catalog
// are compared, with active-year ranges and aggregated genres as
// corroboration. Each artist lands in at most one group.
func GroupArtists(candidates []ArtistProfile, threshold float64) []ArtistGroup {
	if threshold <= 0 {
		threshold = DefaultArtistThreshold
	}

	working := make([]ArtistProfile, 0, len(candidates))
	for _, artist := range candidates {
		if artist.SongCount < 1 {
			continue
		}
		working = append(working, artist)
	}
	sort.Slice(working, func(i, j int) bool { return working[i].ID < working[j].ID })

	processed := make(map[int64]struct{})
	var groups []ArtistGroup

	for i := range working {
		canonical := working[i]
		if _, done := processed[canonical.ID]; done {
			continue
		}
		processed[canonical.ID] = struct{}{}

		group := ArtistGroup{Canonical: canonical}
		for j := i + 1; j < len(working); j++ {
			other := working[j]
			if _, done := processed[other.ID]; done {
				continue
			}
			candidate, ok := classifyArtistPair(canonical, other, threshold)
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

	return groups
}

func classifyArtistPair(canonical, other ArtistProfile, threshold float64) (ArtistCandidate, bool) {
	nameA := strings.TrimSpace(canonical.Name)
	nameB := strings.TrimSpace(other.Name)
	if nameA == "" || nameB == "" {
		return ArtistCandidate{}, false
	}

	var (
		confidence float64
		matchType  MatchType
	)
	switch {
	case strings.EqualFold(nameA, nameB):
		matchType = MatchExact
		confidence = 1.0
	default:
		cleanedA := NormalizeArtistName(nameA)
		cleanedB := NormalizeArtistName(nameB)
		if cleanedA != "" && cleanedA == cleanedB {
			matchType = MatchCleaned
			confidence = scoreCleanedMatch
		} else {
			sim := Similarity(nameA, nameB)
			if sim < threshold {
				return ArtistCandidate{}, false
			}
			matchType = MatchSimilarity
			confidence = sim
		}
	}

	effective := threshold
	if meta, ok := artistMetadataScore(canonical, other); ok {
		switch {
		case meta > metadataAgreeCutoff:
			confidence += metadataBoost
		case meta < metadataVetoedCutoff:
			confidence -= metadataPenalty
			effective = threshold + thresholdRaise
			if effective > thresholdCap {
				effective = thresholdCap
			}
		}
	}

	if confidence < effective {
		return ArtistCandidate{}, false
	}

	return ArtistCandidate{
		Artist:     other,
		MatchType:  matchType,
		Confidence: clamp01(confidence),
	}, true
}

// artistMetadataScore combines active-year range overlap with aggregated
// genre similarity. The second return value is false when neither signal
// is available for the pair.
func artistMetadataScore(a, b ArtistProfile) (float64, bool) {
	var (
		total float64
		parts int
	)

	if a.FirstYear != nil && a.LastYear != nil && b.FirstYear != nil && b.LastYear != nil {
		total += yearRangeOverlap(*a.FirstYear, *a.LastYear, *b.FirstYear, *b.LastYear)
		parts++
	}

	if len(a.Genres) > 0 && len(b.Genres) > 0 {
		// Genres are compared as comma-joined lists, so ordering matters;
		// the aggregation query keeps a stable order per artist.
		total += Similarity(strings.Join(a.Genres, ","), strings.Join(b.Genres, ","))
		parts++
	}

	if parts == 0 {
		return 0, false
	}
	return total / float64(parts), true
}

func yearRangeOverlap(aFirst, aLast, bFirst, bLast int) float64 {
	low := aFirst
	if bFirst > low {
		low = bFirst
	}
	high := aLast
	if bLast < high {
		high = bLast
	}
	overlap := high - low + 1
	if overlap <= 0 {
		return 0
	}

	spanA := aLast - aFirst + 1
	spanB := bLast - bFirst + 1
	span := spanA
	if spanB < span {
		span = spanB
	}
	if span <= 0 {
		return 0
	}
	return float64(overlap) / float64(span)
}
