// Package proxy forwards client requests to the upstream inference server,
// normalizing request and response bodies on the way through.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	app_errors "lm-bridge/internal/errors"
	"lm-bridge/internal/httpclient"
	"lm-bridge/internal/response"
	"lm-bridge/internal/transform"
	"lm-bridge/internal/types"
	"lm-bridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const maxUpstreamErrorBodySize = 64 * 1024 // 64KB

// ProxyServer represents the proxy server
type ProxyServer struct {
	upstream      types.UpstreamConfig
	clientManager *httpclient.Manager
}

// NewProxyServer creates a new proxy server
func NewProxyServer(configManager types.ConfigManager, clientManager *httpclient.Manager) *ProxyServer {
	return &ProxyServer{
		upstream:      configManager.GetUpstreamConfig(),
		clientManager: clientManager,
	}
}

// HandleProxy is the main entry point for proxying requests to the upstream.
// Every path is forwarded; bodies are only rewritten on the configured
// transform paths.
func (ps *ProxyServer) HandleProxy(c *gin.Context) {
	bodyBytes, err := ps.readRequestBody(c)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "Failed to read request body"))
		return
	}

	shouldTransform := ps.shouldTransformPath(c.Request.URL.Path)
	if shouldTransform && len(bodyBytes) > 0 && isJSONContentType(c.ContentType()) {
		bodyBytes = transform.FixRequestBody(bodyBytes)
	}

	isStream := isStreamRequest(c, bodyBytes)

	// Streaming requests get no overall deadline; generation length is
	// unbounded and the client controls cancellation. Buffered requests
	// are capped by the configured request timeout.
	var ctx context.Context
	var cancel context.CancelFunc
	if isStream {
		ctx, cancel = context.WithCancel(c.Request.Context())
	} else {
		ctx, cancel = context.WithTimeout(c.Request.Context(), ps.upstream.RequestTimeout)
	}
	defer cancel()

	upstreamURL := ps.upstream.BaseURL + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		upstreamURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, c.Request.Method, upstreamURL, bytes.NewReader(bodyBytes))
	if err != nil {
		logrus.Errorf("Failed to create upstream request: %v", err)
		response.Error(c, app_errors.ErrInternalServer)
		return
	}
	req.ContentLength = int64(len(bodyBytes))

	req.Header = c.Request.Header.Clone()
	utils.CleanForwardHeaders(req.Header)

	client := ps.clientManager.GetClient()
	if isStream {
		client = ps.clientManager.GetStreamClient()
	}

	resp, err := client.Do(req)
	if err != nil {
		ps.handleUpstreamFailure(c, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Upstream errors are forwarded to the client untouched, but a
		// parsed summary goes to the log for diagnostics.
		ps.logUpstreamErrorStatus(c, resp)
	}

	// Remember the upstream encoding before sanitization drops it; the
	// response handlers either decode the body or put the header back.
	contentEncoding := resp.Header.Get("Content-Encoding")

	utils.SanitizeResponseHeaders(resp.Header)
	for key, values := range resp.Header {
		// Assign the full slice so multi-valued headers like Set-Cookie
		// keep every value instead of collapsing to the last one.
		c.Writer.Header()[key] = values
	}

	if isEventStreamResponse(resp) {
		ps.handleStreamingResponse(c, resp, shouldTransform, contentEncoding)
	} else {
		ps.handleNormalResponse(c, resp, shouldTransform, contentEncoding)
	}
}

// readRequestBody buffers the full request body through the shared pool.
func (ps *ProxyServer) readRequestBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	defer c.Request.Body.Close()

	buf := utils.GetBuffer()
	defer utils.PutBuffer(buf)

	if _, err := io.Copy(buf, c.Request.Body); err != nil {
		return nil, err
	}

	body := make([]byte, buf.Len())
	copy(body, buf.Bytes())
	return body, nil
}

// shouldTransformPath reports whether bodies on this path are rewritten.
func (ps *ProxyServer) shouldTransformPath(path string) bool {
	for _, transformPath := range ps.upstream.TransformPaths {
		if strings.HasSuffix(path, transformPath) {
			return true
		}
	}
	return false
}

// handleUpstreamFailure maps a transport-level failure to a client response.
func (ps *ProxyServer) handleUpstreamFailure(c *gin.Context, err error) {
	if app_errors.IsIgnorableError(err) {
		// The client went away; nobody is listening for a response.
		logrus.Debugf("Client-side ignorable error, aborting: %v", err)
		c.Abort()
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logrus.Warnf("Upstream request timed out: %v", err)
		response.Error(c, app_errors.ErrGatewayTimeout)
		return
	}

	logrus.Errorf("Failed to reach upstream: %v", err)
	response.Error(c, app_errors.NewAPIError(app_errors.ErrUpstreamUnreachable, err.Error()))
}

// logUpstreamErrorStatus records a parsed summary of an upstream error
// response without consuming the body the client will receive.
func (ps *ProxyServer) logUpstreamErrorStatus(c *gin.Context, resp *http.Response) {
	peek, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBodySize))
	if err != nil {
		logrus.Warnf("Upstream returned status %d for %s", resp.StatusCode, c.Request.URL.Path)
		// ReadAll may have consumed part of the body before failing; keep
		// whatever was read so the client still gets it.
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peek), resp.Body))
		return
	}

	decoded, decodeErr := utils.DecompressResponse(resp.Header.Get("Content-Encoding"), peek)
	if decodeErr != nil {
		decoded = peek
	}
	logrus.Warnf("Upstream returned status %d for %s: %s",
		resp.StatusCode, c.Request.URL.Path, app_errors.ParseUpstreamError(decoded))

	// Reattach the consumed bytes so the body still reaches the client.
	resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peek), resp.Body))
}

// isStreamRequest reports whether the client asked for a streamed response.
func isStreamRequest(c *gin.Context, bodyBytes []byte) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	return gjson.GetBytes(bodyBytes, "stream").Bool()
}

// isEventStreamResponse reports whether the upstream answered with SSE.
func isEventStreamResponse(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}

// isJSONContentType accepts application/json and its +json variants.
func isJSONContentType(contentType string) bool {
	if contentType == "" {
		// Chat clients do not always label their JSON bodies.
		return true
	}
	return strings.Contains(contentType, "application/json") || strings.Contains(contentType, "+json")
}
