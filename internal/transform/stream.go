package transform

import "bytes"

var (
	lfDelimiter   = []byte("\n\n")
	crlfDelimiter = []byte("\r\n\r\n")
	dataPrefix    = []byte("data:")
	doneMarker    = []byte("[DONE]")
)

// StreamTransformer applies response body fixes to a server-sent event
// stream. Upstream chunks can split events at arbitrary byte boundaries,
// so incomplete events are buffered until their terminating blank line
// arrives. Events that need no patching are emitted byte-identical to how
// they arrived, including comments, the [DONE] sentinel, and payloads
// that fail to parse as JSON.
//
// A StreamTransformer carries per-stream state and must not be shared
// between streams.
type StreamTransformer struct {
	pending []byte
}

// NewStreamTransformer creates a transformer for a single event stream.
func NewStreamTransformer() *StreamTransformer {
	return &StreamTransformer{}
}

// Transform consumes the next upstream chunk and returns the bytes that
// can be forwarded now. Data not yet forming a complete event is held
// back for a later call.
func (t *StreamTransformer) Transform(chunk []byte) []byte {
	t.pending = append(t.pending, chunk...)

	var out []byte
	for {
		event, rest, ok := cutEvent(t.pending)
		if !ok {
			return out
		}
		t.pending = rest
		out = append(out, transformEvent(event)...)
	}
}

// cutEvent splits off the first complete event, terminator included.
// Both LF and CRLF framed streams are recognized; note "\r\n\r\n" does
// not contain "\n\n" as a substring, so each terminator is searched for
// on its own and the earlier match wins.
func cutEvent(buf []byte) (event, rest []byte, ok bool) {
	idx := bytes.Index(buf, lfDelimiter)
	delim := lfDelimiter
	if crlfIdx := bytes.Index(buf, crlfDelimiter); crlfIdx >= 0 && (idx < 0 || crlfIdx < idx) {
		idx = crlfIdx
		delim = crlfDelimiter
	}
	if idx < 0 {
		return nil, buf, false
	}
	end := idx + len(delim)
	return buf[:end], buf[end:], true
}

// Flush returns any buffered bytes after the upstream closes. A trailing
// fragment without its terminating blank line is still patched if it
// carries a parseable data payload.
func (t *StreamTransformer) Flush() []byte {
	if len(t.pending) == 0 {
		return nil
	}
	out := transformEvent(t.pending)
	t.pending = nil
	return out
}

// transformEvent patches the data lines of one event, returning the event
// unchanged when no line needed fixing.
func transformEvent(event []byte) []byte {
	lines := bytes.Split(event, []byte("\n"))
	changed := false
	for i, line := range lines {
		fixed, lineChanged := transformDataLine(line)
		if lineChanged {
			lines[i] = fixed
			changed = true
		}
	}
	if !changed {
		return event
	}
	return bytes.Join(lines, []byte("\n"))
}

// transformDataLine patches a single "data:" line. Lines without the data
// prefix, empty payloads, the [DONE] sentinel, and payloads the body fixer
// leaves alone all pass through untouched.
func transformDataLine(line []byte) ([]byte, bool) {
	trimmed := bytes.TrimSuffix(line, []byte("\r"))
	payload, ok := bytes.CutPrefix(trimmed, dataPrefix)
	if !ok {
		return line, false
	}

	var space []byte
	if len(payload) > 0 && payload[0] == ' ' {
		space = payload[:1]
		payload = payload[1:]
	}
	if len(payload) == 0 || bytes.Equal(payload, doneMarker) {
		return line, false
	}

	fixed := FixResponseBody(payload)
	if bytes.Equal(fixed, payload) {
		return line, false
	}

	out := make([]byte, 0, len(dataPrefix)+len(space)+len(fixed)+1)
	out = append(out, dataPrefix...)
	out = append(out, space...)
	out = append(out, fixed...)
	if len(trimmed) != len(line) {
		out = append(out, '\r')
	}
	return out, true
}
