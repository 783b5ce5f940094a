//go:build wireinject
// +build wireinject

package di

import (
	"TopMover/pkg/config"
	"TopMover/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideMarketDataClient,
		ProvideKafkaConsumer,

		// Repositories
		ProvideRecordStore,
		ProvideSweeper,
		ProvideEventPublisher,
		ProvideBarArchive,
		ProvideBytesCache,

		// Use cases
		ProvideEngine,
		ProvideMoversQuery,
		ProvideDispatcher,
		ProvideInvocationHandler,

		// Delivery
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
