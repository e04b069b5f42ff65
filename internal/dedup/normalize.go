package dedup

import (
	"regexp"
	"strings"
)

var (
	bracketedSegment = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	collabMarker     = regexp.MustCompile(`(?i)\s(?:feat\.?|ft\.?|featuring|with|&|\+)\s`)
	fourDigitYear    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	bitrateMarker    = regexp.MustCompile(`\b\d{2,4}(?:k|kbps)\b`)
	nonAlphanumeric  = regexp.MustCompile(`[^a-z0-9]+`)
)

// versionWords is the suffix vocabulary stripped from titles and names.
// Bracketed annotations are removed before this pass, so a bare trailing
// "Remastered 2009" is handled the same as "(Remastered 2009)".
var versionWords = map[string]struct{}{
	"remix":        {},
	"remixed":      {},
	"edit":         {},
	"version":      {},
	"mix":          {},
	"radio":        {},
	"extended":     {},
	"original":     {},
	"instrumental": {},
	"acoustic":     {},
	"live":         {},
	"cover":        {},
	"remaster":     {},
	"remastered":   {},
	"official":     {},
	"video":        {},
	"audio":        {},
	"lyric":        {},
	"lyrics":       {},
	"clean":        {},
	"explicit":     {},
	"single":       {},
	"album":        {},
	"ep":           {},
	"deluxe":       {},
	"edition":      {},
	"hq":           {},
	"hd":           {},
}

var artistArtifacts = strings.NewReplacer("{", "", "}", "", `"`, "")

// NormalizeTitle canonicalizes a raw song title for comparison. It returns
// the empty string when nothing comparable remains; callers must treat an
// empty result as "cannot compare".
func NormalizeTitle(raw string) string {
	return normalizeName(raw)
}

// NormalizeArtistName canonicalizes a raw artist name for comparison. In
// addition to title normalization it strips literal brace and quote
// artifacts left behind by sloppy ingestion.
func NormalizeArtistName(raw string) string {
	s := artistArtifacts.Replace(raw)
	return normalizeName(s)
}

func normalizeName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = bracketedSegment.ReplaceAllString(s, " ")

	// Cut the first collaboration marker and its guest list. The segment
	// ends at the next " - " separator when one follows; brackets are
	// already gone by this point.
	if loc := collabMarker.FindStringIndex(s); loc != nil {
		rest := s[loc[1]:]
		if dash := strings.Index(rest, " - "); dash >= 0 {
			s = s[:loc[0]] + rest[dash:]
		} else {
			s = s[:loc[0]]
		}
	}

	s = fourDigitYear.ReplaceAllString(s, " ")
	s = bitrateMarker.ReplaceAllString(s, " ")
	s = nonAlphanumeric.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, word := range fields {
		if _, drop := versionWords[word]; drop {
			continue
		}
		kept = append(kept, word)
	}

	return strings.Join(kept, " ")
}
