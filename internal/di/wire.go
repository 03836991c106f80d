//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/JackFeatherston/Osprey/pkg/config"
	"github.com/JackFeatherston/Osprey/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// External services
		ProvideMarketData,
		ProvideBroker,
		ProvideNewsProvider,
		ProvideSentimentScorer,

		// Repositories
		ProvideProposalStore,
		ProvideSignalArchive,
		ProvideHub,
		ProvideNotifier,

		// Engine
		ProvideBiasCache,
		ProvideAlignment,

		// Use cases
		ProvideAnalyzer,
		ProvideProposalService,

		// Scheduler and transport
		ProvideScheduler,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
