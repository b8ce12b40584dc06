package router

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lm-bridge/internal/httpclient"
	"lm-bridge/internal/proxy"
	"lm-bridge/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type stubConfigManager struct {
	upstream types.UpstreamConfig
	cors     types.CORSConfig
}

func (s *stubConfigManager) GetServerConfig() types.ServerConfig { return types.ServerConfig{} }
func (s *stubConfigManager) GetUpstreamConfig() types.UpstreamConfig {
	return s.upstream
}
func (s *stubConfigManager) GetCORSConfig() types.CORSConfig { return s.cors }
func (s *stubConfigManager) GetPerformanceConfig() types.PerformanceConfig {
	return types.PerformanceConfig{MaxConcurrentRequests: 10}
}
func (s *stubConfigManager) GetLogConfig() types.LogConfig { return types.LogConfig{} }
func (s *stubConfigManager) Validate() error               { return nil }
func (s *stubConfigManager) DisplayServerConfig()          {}
func (s *stubConfigManager) ReloadConfig() error           { return nil }

func newTestEngine(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()

	configManager := &stubConfigManager{
		upstream: types.UpstreamConfig{
			BaseURL:               upstreamURL,
			ConnectTimeout:        5 * time.Second,
			RequestTimeout:        10 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			TransformPaths:        []string{"/v1/chat/completions"},
		},
		cors: types.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		},
	}

	ps := proxy.NewProxyServer(configManager, httpclient.NewManager(configManager))
	return NewRouter(ps, configManager)
}

func TestHealthEndpoint(t *testing.T) {
	// Health must answer even when the upstream is down.
	engine := newTestEngine(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "version").String())
	assert.Equal(t, "http://127.0.0.1:1", gjson.Get(w.Body.String(), "upstream").String())
}

func TestUnknownPathsFallThroughToProxy(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/models", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/v1/models", gotPath)
}

func TestProxyThroughFullMiddlewareStack(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL)

	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"model":"m"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightHandledBeforeProxy(t *testing.T) {
	// No upstream server at all; preflight must not need one.
	engine := newTestEngine(t, "http://127.0.0.1:1")

	req := httptest.NewRequest("OPTIONS", "/v1/chat/completions", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
