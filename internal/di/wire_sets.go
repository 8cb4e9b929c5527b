package di

import (
	"github.com/google/wire"
)

// Provider sets group the constructors by layer. The container is currently
// assembled by hand in NewContainer; these sets keep the graph declared for
// wire-based generation.

// ConfigProviders provides configuration and logging, the foundation every
// other layer depends on.
var ConfigProviders = wire.NewSet(
	provideConfig,
	provideLogger,
)

// InfrastructureProviders provides the connection manager, metrics and the
// decorated repositories.
var InfrastructureProviders = wire.NewSet(
	provideMetrics,
	provideManager,
	provideNodeRepository,
)

// SuperSet combines all provider sets for the complete engine.
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
)
