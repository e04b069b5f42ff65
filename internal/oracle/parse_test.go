package oracle

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseVerdict_WellFormed(t *testing.T) {
	t.Parallel()

	content := `{
		"same_artist": true,
		"primary_name": "Daft Punk",
		"all_aliases": ["Daft Punk", "daft punk", "DaftPunk"],
		"confidence": 0.93,
		"reasoning": "same French duo"
	}`

	verdict, err := parseVerdict(content, zerolog.Nop())
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}

	if !verdict.SameEntity {
		t.Fatal("SameEntity = false, want true")
	}
	if verdict.CanonicalName != "Daft Punk" {
		t.Fatalf("CanonicalName = %q, want Daft Punk", verdict.CanonicalName)
	}
	if verdict.Confidence != 0.93 {
		t.Fatalf("Confidence = %v, want 0.93", verdict.Confidence)
	}
	if len(verdict.Aliases) != 3 {
		t.Fatalf("Aliases = %v, want 3 entries", verdict.Aliases)
	}
	if verdict.Rationale != "same French duo" {
		t.Fatalf("Rationale = %q", verdict.Rationale)
	}
}

func TestParseVerdict_FencedJSON(t *testing.T) {
	t.Parallel()

	content := "Here is my answer:\n```json\n" +
		`{"same_artist": false, "confidence": 0.2}` +
		"\n```\nLet me know if you need more."

	verdict, err := parseVerdict(content, zerolog.Nop())
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if verdict.SameEntity {
		t.Fatal("SameEntity = true, want false")
	}
	if verdict.Confidence != 0.2 {
		t.Fatalf("Confidence = %v, want 0.2", verdict.Confidence)
	}
}

func TestParseVerdict_ConfidenceClampedToZero(t *testing.T) {
	t.Parallel()

	cases := []string{
		`{"same_artist": true, "confidence": 1.7}`,
		`{"same_artist": true, "confidence": -0.4}`,
	}
	for _, content := range cases {
		verdict, err := parseVerdict(content, zerolog.Nop())
		if err != nil {
			t.Fatalf("parseVerdict(%s): %v", content, err)
		}
		if verdict.Confidence != 0 {
			t.Fatalf("Confidence = %v, want 0 after clamping", verdict.Confidence)
		}
	}
}

func TestParseVerdict_NonStringAliasesDropped(t *testing.T) {
	t.Parallel()

	content := `{"same_artist": true, "confidence": 0.9, "all_aliases": ["Real Name", 42, null, "  ", "Other Name"]}`

	verdict, err := parseVerdict(content, zerolog.Nop())
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if len(verdict.Aliases) != 2 {
		t.Fatalf("Aliases = %v, want the two usable strings only", verdict.Aliases)
	}
}

func TestParseVerdict_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"no json at all", "I cannot answer that."},
		{"truncated object", `{"same_artist": true, "confidence":`},
		{"wrong same_artist type", `{"same_artist": "yes", "confidence": 0.9}`},
		{"missing same_artist", `{"confidence": 0.9}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := parseVerdict(tc.content, zerolog.Nop()); err == nil {
				t.Fatalf("parseVerdict(%q) succeeded, want error", tc.content)
			}
		})
	}
}

func TestParseAliasList_PrimaryFirstAndDeduplicated(t *testing.T) {
	t.Parallel()

	content := `{"primary_alias": "Sean Combs", "aliases": ["Diddy", "Puff Daddy", "Sean Combs", "Diddy"]}`

	aliases, err := parseAliasList(content)
	if err != nil {
		t.Fatalf("parseAliasList: %v", err)
	}

	want := []string{"Sean Combs", "Diddy", "Puff Daddy"}
	if len(aliases) != len(want) {
		t.Fatalf("aliases = %v, want %v", aliases, want)
	}
	for i := range want {
		if aliases[i] != want[i] {
			t.Fatalf("aliases[%d] = %q, want %q", i, aliases[i], want[i])
		}
	}
}

func TestParseAliasList_EmptyResult(t *testing.T) {
	t.Parallel()

	if _, err := parseAliasList(`{"primary_alias": "   ", "aliases": []}`); err == nil {
		t.Fatal("expected error for a response with no usable aliases")
	}
}

func TestDecodeOracleJSON_TrailingContentInsideBraces(t *testing.T) {
	t.Parallel()

	// Two adjacent objects: the outermost brace span is not one valid
	// JSON value, so decoding must fail rather than silently keep the
	// first object.
	if _, err := decodeOracleJSON(`{"a": 1} {"b": 2}`); err == nil {
		t.Fatal("expected error for concatenated objects")
	}
}

func TestDecodeOracleJSON_ProseAroundObject(t *testing.T) {
	t.Parallel()

	value, err := decodeOracleJSON("Sure! " + `{"a": 1}` + " Hope that helps.")
	if err != nil {
		t.Fatalf("decodeOracleJSON: %v", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want object", value)
	}
	if _, ok := obj["a"]; !ok {
		t.Fatalf("decoded object = %v, missing key", obj)
	}
}

func TestStringEntries(t *testing.T) {
	t.Parallel()

	got := stringEntries([]any{"a", 1, nil, " b ", ""})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("stringEntries = %v, want [a b]", got)
	}
}

func TestBuildVerifyPrompt_IncludesAllNames(t *testing.T) {
	t.Parallel()

	prompt := buildVerifyPrompt([]string{"Daft Punk", "daft punk"})
	for _, name := range []string{"Daft Punk", "daft punk"} {
		if !strings.Contains(prompt, name) {
			t.Fatalf("prompt missing name %q", name)
		}
	}
	if !strings.Contains(prompt, "same_artist") {
		t.Fatal("prompt missing the required same_artist field description")
	}
}
