package oracle

import (
	"fmt"
	"strings"
)

func buildVerifyPrompt(names []string) string {
	var b strings.Builder
	b.WriteString("You are a music catalog curator. Decide whether the following artist name variants all refer to the same artist:\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nConsider stage names, transliterations, punctuation differences, and common misspellings. ")
	b.WriteString("Similar-looking names can still belong to unrelated artists; say so when they do.\n\n")
	b.WriteString("Respond with strict JSON only, no prose and no code fences, using exactly these fields:\n")
	b.WriteString(`{"same_artist": true or false, "primary_name": "most canonical spelling", "all_aliases": ["every variant plus other known spellings"], "confidence": 0.0 to 1.0, "reasoning": "one short sentence"}`)
	b.WriteString("\n")
	return b.String()
}

func buildAliasPrompt(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a music catalog curator. List the known alternate spellings, stage names, and transliterations of the artist %q.\n\n", name)
	b.WriteString("Respond with strict JSON only, no prose and no code fences, using exactly these fields:\n")
	b.WriteString(`{"primary_alias": "most canonical spelling", "aliases": ["alternate spellings, without duplicates"]}`)
	b.WriteString("\n")
	return b.String()
}
