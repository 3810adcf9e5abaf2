package recommender

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

// Declared request/response contracts. Input is checked before any
// model call; output must conform or the whole operation fails.

var requestSchema = map[string]any{
	"type":     "object",
	"required": []string{"query"},
	"properties": map[string]any{
		"query": map[string]any{"type": "string", "minLength": 1},
		"latitude": map[string]any{
			"type":    "number",
			"minimum": -90,
			"maximum": 90,
		},
		"longitude": map[string]any{
			"type":    "number",
			"minimum": -180,
			"maximum": 180,
		},
		"vibe": map[string]any{"type": "string"},
	},
	"additionalProperties": false,
}

var weatherSchema = map[string]any{
	"type":     "object",
	"required": []string{"temp", "condition"},
	"properties": map[string]any{
		"temp":      map[string]any{"type": "number"},
		"condition": map[string]any{"enum": []string{"sunny", "cloudy", "rainy"}},
	},
	"additionalProperties": false,
}

var recommendationSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "description", "weather"},
	"properties": map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"weather":     weatherSchema,
		"traffic":     map[string]any{"type": "string"},
		"busyness":    map[string]any{"type": "string"},
	},
	"additionalProperties": false,
}

var responseSchema = map[string]any{
	"type":     "object",
	"required": []string{"recommendations"},
	"properties": map[string]any{
		"city":    map[string]any{"type": "string"},
		"message": map[string]any{"type": "string"},
		"recommendations": map[string]any{
			"type":  "array",
			"items": recommendationSchema,
		},
	},
	"additionalProperties": false,
}

func validateRequest(req Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "request not serializable", err)
	}
	return validateAgainst(requestSchema, payload, "request violates schema")
}

func validateResponsePayload(payload []byte) error {
	return validateAgainst(responseSchema, payload, "generated response violates schema")
}

func validateAgainst(schema map[string]any, payload []byte, message string) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, message, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return apperrors.Wrap(apperrors.CodeValidation, message+": "+strings.Join(details, "; "), nil)
	}
	return nil
}

// stripFences removes markdown code fencing the model sometimes wraps
// around its JSON payload.
func stripFences(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	return strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))
}
