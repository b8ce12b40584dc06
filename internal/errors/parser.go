package errors

import (
	"encoding/json"
	"strings"
)

// maxErrorBodyLength limits how much of an upstream error body is kept.
const maxErrorBodyLength = 2048

// upstreamErrorBody covers the error shapes commonly returned by
// OpenAI-compatible servers.
type upstreamErrorBody struct {
	Error    json.RawMessage `json:"error"`
	ErrorMsg string          `json:"error_msg"`
	Message  string          `json:"message"`
}

type nestedError struct {
	Message string `json:"message"`
}

// ParseUpstreamError extracts a human-readable message from an upstream
// error body. Unparseable bodies are returned as-is, truncated.
func ParseUpstreamError(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var parsed upstreamErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return truncateString(strings.TrimSpace(string(body)), maxErrorBodyLength)
	}

	if len(parsed.Error) > 0 {
		// {"error": {"message": "..."}}
		var nested nestedError
		if err := json.Unmarshal(parsed.Error, &nested); err == nil && nested.Message != "" {
			return truncateString(strings.TrimSpace(nested.Message), maxErrorBodyLength)
		}
		// {"error": "..."}
		var plain string
		if err := json.Unmarshal(parsed.Error, &plain); err == nil && plain != "" {
			return truncateString(strings.TrimSpace(plain), maxErrorBodyLength)
		}
	}

	if parsed.ErrorMsg != "" {
		return truncateString(strings.TrimSpace(parsed.ErrorMsg), maxErrorBodyLength)
	}

	if parsed.Message != "" {
		return truncateString(strings.TrimSpace(parsed.Message), maxErrorBodyLength)
	}

	return truncateString(strings.TrimSpace(string(body)), maxErrorBodyLength)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength]
}
