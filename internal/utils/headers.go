package utils

import (
	"net/http"
	"strings"
)

// hopByHopHeaders are valid for a single transport leg only and must not be
// forwarded by an intermediary (RFC 9110 §7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// CleanForwardHeaders prepares a cloned client header set for the upstream
// request. Host is regenerated by the transport, sec-* headers are
// browser-leg metadata, and Accept-Encoding/Content-Length are recomputed
// downstream so the transform engines always see identity-encoded bodies
// with correct lengths.
func CleanForwardHeaders(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	h.Del("Host")
	h.Del("Accept-Encoding")
	h.Del("Content-Length")

	for name := range h {
		if strings.HasPrefix(strings.ToLower(name), "sec-") {
			h.Del(name)
		}
	}
}

// SanitizeResponseHeaders removes headers that no longer describe the
// response body once it has been decoded and possibly rewritten. Length and
// encoding are left for the server to regenerate.
func SanitizeResponseHeaders(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	h.Del("Content-Length")
	h.Del("Content-Encoding")
}
