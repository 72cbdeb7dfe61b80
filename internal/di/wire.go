//go:build wireinject
// +build wireinject

package di

import (
	"SmartMoney/pkg/config"
	"SmartMoney/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCacheStore,

		// Repositories
		ProvideMarketData,
		ProvideResultCache,
		ProvidePublisher,
		ProvideProgressHub,

		// Use cases
		ProvideScorer,
		ProvideScreener,
		ProvideScreeningService,

		// Transport
		ProvideScreenerHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
