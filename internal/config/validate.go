package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema validates the raw config document before unmarshalling, so
// that a typo'd endpoint list fails with a pointed message instead of an
// endpoint ring that silently came up empty.
const configSchema = `{
	"type": "object",
	"properties": {
		"endpoints": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name":    {"type": "string"},
					"url":     {"type": "string", "minLength": 1},
					"model":   {"type": "string", "minLength": 1},
					"api_key": {"type": "string"},
					"kind":    {"type": "string", "enum": ["openai", "anthropic"]}
				},
				"required": ["url", "model"]
			}
		},
		"token_budget":            {"type": "integer", "minimum": 1},
		"cooldown_seconds":        {"type": "integer", "minimum": 1},
		"request_timeout_seconds": {"type": "integer", "minimum": 1},
		"cost_divisor":            {"type": "number", "minimum": 0, "exclusiveMinimum": true},
		"db_path":                 {"type": "string"},
		"index_path":              {"type": "string"},
		"watch_dir":               {"type": "string"}
	}
}`

// Validate checks a raw config JSON document against the schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("config does not match schema: %s", strings.Join(msgs, "; "))
}
