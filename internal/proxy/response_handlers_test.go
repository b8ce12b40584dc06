package proxy

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestHandleProxyStreamingTransform(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"hello\"}}]}\n\n"))
		flusher.Flush()
		w.Write([]byte("data: {\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":5}}\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer upstream.Close()

	router := newTestProxy(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"model":"m","stream":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	events := strings.Split(strings.TrimSuffix(w.Body.String(), "\n\n"), "\n\n")
	require.Len(t, events, 3)

	assert.Equal(t, "data: {\"choices\":[{\"delta\":{\"content\":\"hello\"}}]}", events[0],
		"events without usage pass through byte-identical")

	usagePayload := strings.TrimPrefix(events[1], "data: ")
	assert.Equal(t, int64(0), gjson.Get(usagePayload, "usage.input_tokens_details.cached_tokens").Int())
	assert.Equal(t, int64(0), gjson.Get(usagePayload, "usage.output_tokens_details.reasoning_tokens").Int())

	assert.Equal(t, "data: [DONE]", events[2])
}

func TestHandleProxyStreamingMalformedChunkPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {broken json\n\ndata: [DONE]\n\n"))
	}))
	defer upstream.Close()

	router := newTestProxy(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"stream":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data: {broken json\n\ndata: [DONE]\n\n", w.Body.String())
}

func TestHandleProxyStreamingNonTransformPath(t *testing.T) {
	raw := "data: {\"usage\":{\"prompt_tokens\":1}}\n\n"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(raw))
	}))
	defer upstream.Close()

	router := newTestProxy(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/custom/stream", bytes.NewBufferString(`{"stream":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, raw, w.Body.String(), "streams outside transform paths are relayed untouched")
}

func TestHandleProxyStreamingCompressedRelay(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("data: {\"usage\":{\"prompt_tokens\":1}}\n\ndata: [DONE]\n\n"))
	gz.Close()
	compressed := buf.Bytes()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(compressed)
	}))
	defer upstream.Close()

	router := newTestProxy(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"stream":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"),
		"an encoded stream keeps its header and is relayed byte-identical")
	assert.Equal(t, compressed, w.Body.Bytes())
}

func TestHandleProxyStreamingTrailingFragmentFlushed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// Final event lacks its terminating blank line.
		w.Write([]byte("data: {\"usage\":{\"prompt_tokens\":1}}"))
	}))
	defer upstream.Close()

	router := newTestProxy(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"stream":true}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cached_tokens", "buffered tail must be flushed at stream end")
}
