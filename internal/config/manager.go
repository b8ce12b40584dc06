// Package config provides environment-backed configuration management.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"lm-bridge/internal/types"

	"github.com/sirupsen/logrus"
)

// DefaultTransformPaths lists the upstream endpoints whose bodies receive
// protocol normalization when TRANSFORM_PATHS is not configured.
var DefaultTransformPaths = []string{
	"/v1/chat/completions",
	"/v1/completions",
	"/v1/responses",
}

// Manager implements types.ConfigManager backed by environment variables.
// The configuration is loaded once at startup and is immutable afterwards;
// every request handler shares the same read-only view.
type Manager struct {
	serverConfig      types.ServerConfig
	upstreamConfig    types.UpstreamConfig
	corsConfig        types.CORSConfig
	performanceConfig types.PerformanceConfig
	logConfig         types.LogConfig
}

// NewManager creates a new configuration manager from the environment.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.ReloadConfig(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReloadConfig re-reads configuration from the environment and validates it.
func (m *Manager) ReloadConfig() error {
	bindAll := parseBoolEnv("BIND_ALL", false)
	host := os.Getenv("HOST")
	if host == "" {
		if bindAll {
			host = "0.0.0.0"
		} else {
			host = "127.0.0.1"
		}
	}

	m.serverConfig = types.ServerConfig{
		Port:                    parseIntEnv("PORT", 3000),
		Host:                    host,
		BindAll:                 bindAll,
		ReadTimeout:             parseIntEnv("SERVER_READ_TIMEOUT", 120),
		WriteTimeout:            parseIntEnv("SERVER_WRITE_TIMEOUT", 1800),
		IdleTimeout:             parseIntEnv("SERVER_IDLE_TIMEOUT", 120),
		GracefulShutdownTimeout: parseIntEnv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 10),
	}

	m.upstreamConfig = types.UpstreamConfig{
		BaseURL:               strings.TrimRight(getEnvOrDefault("UPSTREAM_URL", "http://localhost:1234"), "/"),
		ConnectTimeout:        time.Duration(parseIntEnv("CONNECT_TIMEOUT", 15)) * time.Second,
		RequestTimeout:        time.Duration(parseIntEnv("REQUEST_TIMEOUT", 600)) * time.Second,
		IdleConnTimeout:       time.Duration(parseIntEnv("IDLE_CONN_TIMEOUT", 120)) * time.Second,
		ResponseHeaderTimeout: time.Duration(parseIntEnv("RESPONSE_HEADER_TIMEOUT", 600)) * time.Second,
		MaxIdleConns:          parseIntEnv("MAX_IDLE_CONNS", 100),
		MaxIdleConnsPerHost:   parseIntEnv("MAX_IDLE_CONNS_PER_HOST", 50),
		TransformPaths:        parseListEnv("TRANSFORM_PATHS", DefaultTransformPaths),
	}

	m.corsConfig = types.CORSConfig{
		Enabled:          parseBoolEnv("ENABLE_CORS", false),
		AllowedOrigins:   parseListEnv("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods:   parseListEnv("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:   parseListEnv("ALLOWED_HEADERS", []string{"*"}),
		AllowCredentials: parseBoolEnv("ALLOW_CREDENTIALS", false),
	}

	m.performanceConfig = types.PerformanceConfig{
		MaxConcurrentRequests: parseIntEnv("MAX_CONCURRENT_REQUESTS", 100),
	}

	m.logConfig = types.LogConfig{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Format:     getEnvOrDefault("LOG_FORMAT", "text"),
		EnableFile: parseBoolEnv("LOG_ENABLE_FILE", false),
		FilePath:   getEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
	}

	return m.Validate()
}

// Validate checks the loaded configuration for consistency.
func (m *Manager) Validate() error {
	if m.serverConfig.Port < 1 || m.serverConfig.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.serverConfig.Port)
	}

	if m.upstreamConfig.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	parsed, err := url.Parse(m.upstreamConfig.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("UPSTREAM_URL must be an absolute URL, got %q", m.upstreamConfig.BaseURL)
	}

	if m.performanceConfig.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max concurrent requests cannot be less than 1")
	}

	if len(m.upstreamConfig.TransformPaths) == 0 {
		return fmt.Errorf("transform paths cannot be empty; unset TRANSFORM_PATHS to use defaults")
	}

	return nil
}

// GetServerConfig returns the server configuration.
func (m *Manager) GetServerConfig() types.ServerConfig {
	return m.serverConfig
}

// GetUpstreamConfig returns the upstream configuration.
func (m *Manager) GetUpstreamConfig() types.UpstreamConfig {
	return m.upstreamConfig
}

// GetCORSConfig returns the CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.corsConfig
}

// GetPerformanceConfig returns the performance configuration.
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.performanceConfig
}

// GetLogConfig returns the logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.logConfig
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	logrus.Info("LM-Bridge protocol-compatibility proxy")
	logrus.Infof("  Listening: http://%s:%d", m.serverConfig.Host, m.serverConfig.Port)
	logrus.Infof("  Upstream: %s", m.upstreamConfig.BaseURL)
	logrus.Infof("  Transform paths: %s", strings.Join(m.upstreamConfig.TransformPaths, ", "))
	if m.corsConfig.Enabled {
		logrus.Info("  CORS: enabled")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid boolean for %s: %q, using default %t", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func parseListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
