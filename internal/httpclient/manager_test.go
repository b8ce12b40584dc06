package httpclient

import (
	"net/http"
	"testing"
	"time"

	"lm-bridge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfigManager struct {
	upstream types.UpstreamConfig
}

func (s *stubConfigManager) GetServerConfig() types.ServerConfig   { return types.ServerConfig{} }
func (s *stubConfigManager) GetUpstreamConfig() types.UpstreamConfig {
	return s.upstream
}
func (s *stubConfigManager) GetCORSConfig() types.CORSConfig { return types.CORSConfig{} }
func (s *stubConfigManager) GetPerformanceConfig() types.PerformanceConfig {
	return types.PerformanceConfig{}
}
func (s *stubConfigManager) GetLogConfig() types.LogConfig { return types.LogConfig{} }
func (s *stubConfigManager) Validate() error               { return nil }
func (s *stubConfigManager) DisplayServerConfig()          {}
func (s *stubConfigManager) ReloadConfig() error           { return nil }

func testUpstreamConfig() types.UpstreamConfig {
	return types.UpstreamConfig{
		BaseURL:               "http://localhost:1234",
		ConnectTimeout:        15 * time.Second,
		RequestTimeout:        600 * time.Second,
		IdleConnTimeout:       120 * time.Second,
		ResponseHeaderTimeout: 600 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   50,
	}
}

func TestNewManagerClients(t *testing.T) {
	m := NewManager(&stubConfigManager{upstream: testUpstreamConfig()})

	buffered := m.GetClient()
	streaming := m.GetStreamClient()

	require.NotNil(t, buffered)
	require.NotNil(t, streaming)
	assert.NotSame(t, buffered, streaming)

	assert.Equal(t, 600*time.Second, buffered.Timeout)
	assert.Zero(t, streaming.Timeout, "streaming client must not enforce an overall deadline")
}

func TestNewManagerTransportTuning(t *testing.T) {
	m := NewManager(&stubConfigManager{upstream: testUpstreamConfig()})

	for _, client := range []*http.Client{m.GetClient(), m.GetStreamClient()} {
		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.True(t, transport.DisableCompression)
		assert.Equal(t, 100, transport.MaxIdleConns)
		assert.Equal(t, 50, transport.MaxIdleConnsPerHost)
		assert.Equal(t, 100, transport.MaxConnsPerHost)
		assert.Equal(t, 120*time.Second, transport.IdleConnTimeout)
	}
}

func TestNewManagerBurstFloor(t *testing.T) {
	upstream := testUpstreamConfig()
	upstream.MaxIdleConnsPerHost = 2

	m := NewManager(&stubConfigManager{upstream: upstream})

	transport := m.GetClient().Transport.(*http.Transport)
	assert.Equal(t, 10, transport.MaxConnsPerHost)
}

func TestCloseIdleConnections(t *testing.T) {
	m := NewManager(&stubConfigManager{upstream: testUpstreamConfig()})

	// Must not panic with no live connections.
	m.CloseIdleConnections()
}
