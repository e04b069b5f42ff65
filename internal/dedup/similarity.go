package dedup

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

var abbreviations = map[string]string{
	"&":      "and",
	"feat":   "featuring",
	"feat.":  "featuring",
	"ft":     "featuring",
	"ft.":    "featuring",
	"w/":     "with",
	"u.s.a.": "usa",
	"u.k.":   "uk",
}

// Similarity scores the resemblance of two raw strings in [0, 1]. A
// case-insensitive exact match short-circuits to 1.0; otherwise the result
// is the best LCS ratio across the raw case-folded strings, the strings
// with a leading "the " stripped, and the strings with common abbreviations
// expanded. The full normalization pass is deliberately not applied here:
// it is too aggressive for titles that only partially share cleaned forms.
func Similarity(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}

	af := strings.ToLower(a)
	bf := strings.ToLower(b)

	best := lcsRatio(af, bf)
	if r := lcsRatio(stripLeadingThe(af), stripLeadingThe(bf)); r > best {
		best = r
	}
	if r := lcsRatio(expandAbbreviations(af), expandAbbreviations(bf)); r > best {
		best = r
	}
	return best
}

func lcsRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ratio, err := edlib.StringsSimilarity(a, b, edlib.Lcs)
	if err != nil {
		return 0
	}
	// The LCS edit distance can exceed the longer string's length, which
	// drives the ratio below zero for disjoint strings.
	if ratio < 0 {
		return 0
	}
	return float64(ratio)
}

func stripLeadingThe(s string) string {
	trimmed := strings.TrimPrefix(s, "the ")
	return strings.TrimSpace(trimmed)
}

func expandAbbreviations(s string) string {
	fields := strings.Fields(s)
	for i, word := range fields {
		if expanded, ok := abbreviations[word]; ok {
			fields[i] = expanded
		}
	}
	return strings.Join(fields, " ")
}
