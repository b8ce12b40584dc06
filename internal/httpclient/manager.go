// Package httpclient builds the HTTP clients used to reach the upstream
// inference server.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"lm-bridge/internal/types"

	"github.com/sirupsen/logrus"
)

// Manager owns the two clients the proxy needs: a buffered client with an
// overall request deadline, and a streaming client without one so long
// generations are never cut off mid-stream. Both share the same transport
// tuning and are safe for concurrent use.
type Manager struct {
	client       *http.Client
	streamClient *http.Client
}

// NewManager creates the upstream clients from the given configuration.
func NewManager(configManager types.ConfigManager) *Manager {
	upstream := configManager.GetUpstreamConfig()

	// Allow temporary bursts beyond the idle pool size, with a floor so
	// a very low MaxIdleConnsPerHost cannot strangle concurrency.
	maxConnsPerHost := upstream.MaxIdleConnsPerHost * 2
	if maxConnsPerHost < 10 {
		maxConnsPerHost = 10
	}

	newTransport := func() *http.Transport {
		return &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   upstream.ConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          upstream.MaxIdleConns,
			MaxIdleConnsPerHost:   upstream.MaxIdleConnsPerHost,
			MaxConnsPerHost:       maxConnsPerHost,
			IdleConnTimeout:       upstream.IdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: upstream.ResponseHeaderTimeout,
			// Compressed bodies are decompressed explicitly after the
			// response transform decides whether it needs the payload.
			DisableCompression: true,
		}
	}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		return nil
	}

	m := &Manager{
		client: &http.Client{
			Transport:     newTransport(),
			Timeout:       upstream.RequestTimeout,
			CheckRedirect: checkRedirect,
		},
		streamClient: &http.Client{
			Transport:     newTransport(),
			CheckRedirect: checkRedirect,
		},
	}

	logrus.WithFields(logrus.Fields{
		"upstream":           upstream.BaseURL,
		"request_timeout":    upstream.RequestTimeout,
		"max_conns_per_host": maxConnsPerHost,
	}).Debug("Created upstream HTTP clients")

	return m
}

// GetClient returns the client for buffered requests.
func (m *Manager) GetClient() *http.Client {
	return m.client
}

// GetStreamClient returns the client for streaming requests. It has no
// overall timeout; stream lifetime is bounded by the request context.
func (m *Manager) GetStreamClient() *http.Client {
	return m.streamClient
}

// CloseIdleConnections releases pooled connections during shutdown.
func (m *Manager) CloseIdleConnections() {
	for _, client := range []*http.Client{m.client, m.streamClient} {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
	logrus.Debug("Closed idle upstream connections")
}
