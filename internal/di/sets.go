package di

import (
	"DiabScreen/internal/domain/repository"
	"DiabScreen/pkg/metrics"

	"github.com/google/wire"
)

// artifactSet provisions the screening model.
var artifactSet = wire.NewSet(
	ProvideMetrics,
	wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
	ProvideProvisioner,
	ProvideBundle,
)

// appSet wires the full service.
var appSet = wire.NewSet(
	artifactSet,

	// Infrastructure clients
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideRedisClient,
	ProvideEventStore,

	// Event fan-out
	ProvideHub,
	ProvideSinks,
	ProvideEventPipeline,

	// Use cases and transport
	ProvideScreener,
	ProvideLimiter,
	ProvideHandlers,
	ProvideHTTPServer,

	// Application server
	ProvideApp,
)

// provisionSet fetches and loads artifacts without starting the service.
var provisionSet = wire.NewSet(
	artifactSet,
	ProvideCLILogger,
)
