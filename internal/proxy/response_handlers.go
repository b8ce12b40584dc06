package proxy

import (
	"io"
	"net/http"

	app_errors "lm-bridge/internal/errors"
	"lm-bridge/internal/transform"
	"lm-bridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (ps *ProxyServer) handleStreamingResponse(c *gin.Context, resp *http.Response, shouldTransform bool, contentEncoding string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if contentEncoding != "" && contentEncoding != "identity" {
		// A compressed event stream cannot be rewritten chunk by chunk;
		// restore the encoding header and relay the bytes untouched.
		c.Header("Content-Encoding", contentEncoding)
		shouldTransform = false
	}
	c.Status(resp.StatusCode)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		logrus.Error("Streaming unsupported by the writer, falling back to normal response")
		ps.handleNormalResponse(c, resp, shouldTransform, contentEncoding)
		return
	}

	var transformer *transform.StreamTransformer
	if shouldTransform {
		transformer = transform.NewStreamTransformer()
	}

	buf := make([]byte, 4*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			out := buf[:n]
			if transformer != nil {
				out = transformer.Transform(buf[:n])
			}
			if len(out) > 0 {
				if _, writeErr := c.Writer.Write(out); writeErr != nil {
					logUpstreamError("writing stream to client", writeErr)
					return
				}
				flusher.Flush()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logUpstreamError("reading from upstream", err)
			return
		}
	}

	if transformer != nil {
		if leftover := transformer.Flush(); len(leftover) > 0 {
			if _, writeErr := c.Writer.Write(leftover); writeErr != nil {
				logUpstreamError("writing stream tail to client", writeErr)
				return
			}
			flusher.Flush()
		}
	}
}

func (ps *ProxyServer) handleNormalResponse(c *gin.Context, resp *http.Response, shouldTransform bool, contentEncoding string) {
	if !shouldTransform && (contentEncoding == "" || contentEncoding == "identity") {
		// Fast path: direct copy without buffering
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			logUpstreamError("copying response body", err)
		}
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logUpstreamError("reading response body", err)
		c.Status(resp.StatusCode)
		return
	}

	// Clients receive plain bytes, so an encoded body must be decoded even
	// on paths whose payload is not rewritten. When decoding fails the
	// original bytes go out with their encoding header restored.
	decoded, err := utils.DecompressResponse(contentEncoding, body)
	if err != nil {
		logrus.Warnf("Failed to decompress upstream response, passing through: %v", err)
		c.Header("Content-Encoding", contentEncoding)
		c.Status(resp.StatusCode)
		if _, writeErr := c.Writer.Write(body); writeErr != nil {
			logUpstreamError("writing response body", writeErr)
		}
		return
	}
	c.Writer.Header().Del("Content-Encoding")

	out := decoded
	if shouldTransform {
		out = transform.FixResponseBody(decoded)
	}

	c.Status(resp.StatusCode)
	if _, err := c.Writer.Write(out); err != nil {
		logUpstreamError("writing response body", err)
	}
}

// logUpstreamError provides a centralized way to log errors from upstream interactions.
func logUpstreamError(context string, err error) {
	if err == nil {
		return
	}
	if app_errors.IsIgnorableError(err) {
		logrus.Debugf("Ignorable upstream error in %s: %v", context, err)
	} else {
		logrus.Errorf("Upstream error in %s: %v", context, err)
	}
}
