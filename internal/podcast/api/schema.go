package api

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Response schemas. Decoding fails closed: a body that does not match is a
// MalformedResponseError, never a half-filled result.
var (
	cloneSchema = mustResolve(&jsonschema.Schema{
		Type:     "object",
		Required: []string{"voice_id"},
		Properties: map[string]*jsonschema.Schema{
			"voice_id": {Type: "string", MinLength: intPtr(1)},
			"message":  optionalString(),
			"analysis": {
				Types: []string{"object", "null"},
				Properties: map[string]*jsonschema.Schema{
					"duration": optionalString(),
					"quality":  optionalString(),
					"language": optionalString(),
					"clarity":  {Types: []string{"number", "null"}},
				},
			},
			"file_info": {
				Types: []string{"object", "null"},
				Properties: map[string]*jsonschema.Schema{
					"filename": optionalString(),
					"size":     {Types: []string{"integer", "null"}},
				},
			},
		},
	})

	scriptSchema = mustResolve(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"script":           optionalString(),
			"text":             optionalString(),
			"generated_script": optionalString(),
			"language":         optionalString(),
			"prompt":           optionalString(),
			"word_count":       {Types: []string{"integer", "null"}},
			"character_count":  {Types: []string{"integer", "null"}},
		},
	})

	workflowSchema = mustResolve(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"voice_id":        optionalString(),
			"script":          optionalString(),
			"audio_url":       optionalString(),
			"audio_base64":    optionalString(),
			"language":        optionalString(),
			"audio_generated": {Types: []string{"boolean", "null"}},
		},
	})
)

// decodeStrict validates body against schema and then unmarshals it into out.
func decodeStrict(body []byte, schema *jsonschema.Resolved, out any) error {
	var instance any
	if err := json.Unmarshal(body, &instance); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("body is not JSON: %v", err)}
	}
	if err := schema.Validate(instance); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("unexpected shape: %v", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("failed to decode: %v", err)}
	}
	return nil
}

func optionalString() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"string", "null"}}
}

func intPtr(v int) *int { return &v }

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("api: invalid response schema: %v", err))
	}
	return resolved
}
