package errors

import "strings"

// ignorableErrorSubstrings lists error text produced when the client walks
// away mid-request. These are connection lifecycle noise, not failures.
var ignorableErrorSubstrings = []string{
	"context canceled",
	"connection reset by peer",
	"broken pipe",
	"use of closed network connection",
	"request canceled",
	"client disconnected",
}

// IsIgnorableError reports whether err stems from a client disconnect or
// cancellation rather than an actual proxy failure.
func IsIgnorableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, substr := range ignorableErrorSubstrings {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
