package oracle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"vibeset.fm/catalog/internal/dedup"
)

//go:embed verdict.schema.json
var verdictSchemaJSON string

//go:embed alias_list.schema.json
var aliasListSchemaJSON string

var (
	verdictSchemaOnce sync.Once
	verdictSchema     *jsonschema.Schema
	verdictSchemaErr  error

	aliasSchemaOnce sync.Once
	aliasSchema     *jsonschema.Schema
	aliasSchemaErr  error
)

type verdictPayload struct {
	SameArtist  bool    `json:"same_artist"`
	PrimaryName string  `json:"primary_name"`
	AllAliases  []any   `json:"all_aliases"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

type aliasListPayload struct {
	PrimaryAlias string `json:"primary_alias"`
	Aliases      []any  `json:"aliases"`
}

// parseVerdict validates and decodes the oracle's verdict content. The
// confidence is clamped to 0 and logged when outside [0, 1]; non-string or
// blank alias entries are dropped rather than rejected.
func parseVerdict(content string, logger zerolog.Logger) (*dedup.Verdict, error) {
	value, err := decodeOracleJSON(content)
	if err != nil {
		return nil, err
	}

	schema, err := loadVerdictSchema()
	if err != nil {
		return nil, fmt.Errorf("load verdict schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("verdict schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize verdict JSON: %w", err)
	}
	var payload verdictPayload
	if err := json.Unmarshal(normalized, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	confidence := payload.Confidence
	if confidence < 0 || confidence > 1 {
		logger.Warn().
			Float64("confidence", confidence).
			Msg("oracle confidence out of range, clamping to 0")
		confidence = 0
	}

	return &dedup.Verdict{
		SameEntity:    payload.SameArtist,
		CanonicalName: strings.TrimSpace(payload.PrimaryName),
		Aliases:       stringEntries(payload.AllAliases),
		Confidence:    confidence,
		Rationale:     strings.TrimSpace(payload.Reasoning),
	}, nil
}

// parseAliasList validates and decodes a single-artist alias generation
// response. The primary alias leads the returned list.
func parseAliasList(content string) ([]string, error) {
	value, err := decodeOracleJSON(content)
	if err != nil {
		return nil, err
	}

	schema, err := loadAliasListSchema()
	if err != nil {
		return nil, fmt.Errorf("load alias list schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("alias list schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize alias list JSON: %w", err)
	}
	var payload aliasListPayload
	if err := json.Unmarshal(normalized, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal alias list: %w", err)
	}

	aliases := make([]string, 0, len(payload.Aliases)+1)
	if primary := strings.TrimSpace(payload.PrimaryAlias); primary != "" {
		aliases = append(aliases, primary)
	}
	for _, alias := range stringEntries(payload.Aliases) {
		duplicate := false
		for _, existing := range aliases {
			if existing == alias {
				duplicate = true
				break
			}
		}
		if !duplicate {
			aliases = append(aliases, alias)
		}
	}
	if len(aliases) == 0 {
		return nil, fmt.Errorf("alias list response contained no usable aliases")
	}
	return aliases, nil
}

// decodeOracleJSON extracts the JSON object from the model's output and
// decodes it strictly. Models occasionally wrap the object in code fences
// or prose; everything outside the outermost braces is ignored.
func decodeOracleJSON(content string) (any, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("response contains no JSON object")
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(trimmed[start : end+1])))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode response JSON: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("response contains trailing content")
	}

	return value, nil
}

func stringEntries(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		text, ok := value.(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadVerdictSchema() (*jsonschema.Schema, error) {
	verdictSchemaOnce.Do(func() {
		verdictSchema, verdictSchemaErr = compileSchema("verdict.schema.json", verdictSchemaJSON)
	})
	return verdictSchema, verdictSchemaErr
}

func loadAliasListSchema() (*jsonschema.Schema, error) {
	aliasSchemaOnce.Do(func() {
		aliasSchema, aliasSchemaErr = compileSchema("alias_list.schema.json", aliasListSchemaJSON)
	})
	return aliasSchema, aliasSchemaErr
}

func compileSchema(name, source string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
