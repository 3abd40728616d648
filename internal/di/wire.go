//go:build wireinject
// +build wireinject

package di

import (
	"NepsePulse/pkg/config"
	"NepsePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Acquisition pipeline
		ProvideSource,
		ProvideNormalizer,
		ProvideStore,
		ProvideSnapshotCache,
		ProvidePublisher,

		// Service facade
		ProvideMarketService,
		ProvideMarketData,

		// HTTP surface
		ProvideHandlers,
		ProvideApp,
	)
	return &server.App{}, nil
}
