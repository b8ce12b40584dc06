// Package container wires application dependencies together.
package container

import (
	"lm-bridge/internal/app"
	"lm-bridge/internal/config"
	"lm-bridge/internal/httpclient"
	"lm-bridge/internal/proxy"
	"lm-bridge/internal/router"
	"lm-bridge/internal/types"

	"go.uber.org/dig"
)

// BuildContainer creates the dependency injection container for the server.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		func() (types.ConfigManager, error) {
			return config.NewManager()
		},
		httpclient.NewManager,
		proxy.NewProxyServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
