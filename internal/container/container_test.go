package container

import (
	"testing"

	"lm-bridge/internal/app"
	"lm-bridge/internal/proxy"
	"lm-bridge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildContainer tests container creation
func TestBuildContainer(t *testing.T) {
	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)
}

// TestBuildContainer_ConfigManagerResolution tests config manager resolution
func TestBuildContainer_ConfigManagerResolution(t *testing.T) {
	container, err := BuildContainer()
	require.NoError(t, err)

	var configManager types.ConfigManager
	err = container.Invoke(func(cm types.ConfigManager) {
		configManager = cm
	})
	require.NoError(t, err)
	assert.NotNil(t, configManager)
	assert.Equal(t, 3000, configManager.GetServerConfig().Port)
}

// TestBuildContainer_ProxyServerResolution tests proxy server resolution
func TestBuildContainer_ProxyServerResolution(t *testing.T) {
	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(ps *proxy.ProxyServer) {
		assert.NotNil(t, ps)
	})
	require.NoError(t, err)
}

// TestBuildContainer_App tests the full application graph resolves
func TestBuildContainer_App(t *testing.T) {
	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(application *app.App) {
		assert.NotNil(t, application)
	})
	require.NoError(t, err)
}

// TestBuildContainer_InvalidConfig tests that bad configuration surfaces on resolution
func TestBuildContainer_InvalidConfig(t *testing.T) {
	t.Setenv("PORT", "99999")

	container, err := BuildContainer()
	require.NoError(t, err, "providers are lazy; building the container must not fail")

	err = container.Invoke(func(cm types.ConfigManager) {})
	assert.Error(t, err)
}
