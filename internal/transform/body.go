// Package transform normalizes request and response bodies between chat
// clients and OpenAI-compatible inference servers. Some clients emit tool
// definitions without parameter schemas, and some servers omit the token
// detail fields newer clients require; both sides are patched here so
// neither needs to change.
package transform

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// defaultToolParameters is the schema substituted for missing or unusable
// tool parameter declarations.
func defaultToolParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// FixRequestBody normalizes tool definitions in a request body. Every tool
// whose parameter schema is absent, empty, not an object, or missing a
// "type" field has that schema replaced with an empty object schema.
// Bodies that are not JSON objects are returned unchanged.
func FixRequestBody(body []byte) []byte {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}

	changed := false
	if tools, ok := payload["tools"].([]any); ok {
		for _, item := range tools {
			if tool, ok := item.(map[string]any); ok && fixTool(tool) {
				changed = true
			}
		}
	}
	// Some clients send a single tool instead of a tools array.
	if tool, ok := payload["tool"].(map[string]any); ok && fixTool(tool) {
		changed = true
	}

	if !changed {
		return body
	}

	fixed, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return fixed
}

// fixTool locates a tool's parameter schema by role. OpenAI-style tools
// nest it under "function"; other clients place it at the top level of
// the tool itself. A tool whose "function" key holds something other than
// an object is malformed and is left for the upstream to reject.
func fixTool(tool map[string]any) bool {
	if fn, exists := tool["function"]; exists {
		if obj, ok := fn.(map[string]any); ok {
			return fixToolParameters(obj)
		}
		return false
	}
	return fixToolParameters(tool)
}

// fixToolParameters replaces an unusable "parameters" value on the given
// holder and reports whether a replacement happened.
func fixToolParameters(holder map[string]any) bool {
	params, exists := holder["parameters"]
	if exists {
		if obj, ok := params.(map[string]any); ok && len(obj) > 0 {
			if _, hasType := obj["type"]; hasType {
				return false
			}
		}
	}
	holder["parameters"] = defaultToolParameters()
	return true
}

// usagePatches maps the token detail fields some servers omit to their
// default values. Paths are relative to a usage object.
var usagePatches = []struct {
	path  string
	value int
}{
	{"input_tokens_details.cached_tokens", 0},
	{"output_tokens_details.reasoning_tokens", 0},
}

// FixResponseBody fills in token accounting fields that strict clients
// require but some inference servers omit. Both the top-level "usage"
// object and the Responses API's nested "response.usage" object are
// patched. Existing values are never overwritten, and bodies without a
// usage object, or that are not valid JSON, are returned unchanged.
func FixResponseBody(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}

	for _, prefix := range []string{"usage", "response.usage"} {
		if !gjson.GetBytes(body, prefix).IsObject() {
			continue
		}
		for _, patch := range usagePatches {
			path := prefix + "." + patch.path
			if gjson.GetBytes(body, path).Exists() {
				continue
			}
			patched, err := sjson.SetBytes(body, path, patch.value)
			if err != nil {
				return body
			}
			body = patched
		}
	}

	return body
}
