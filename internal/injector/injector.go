//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/motion/internal/core/config"
	"github.com/zeusync/motion/internal/core/observability/log"
	"github.com/zeusync/motion/internal/planner"
)

func InitializeLogger(cfg *config.Config) (*log.Logger, error) {
	wire.Build(ProvideLogger)
	return nil, nil
}

// InitializeSimPlanner builds a planner driving the simulated chassis.
func InitializeSimPlanner(cfg *config.Config) (*planner.Planner, func(), error) {
	wire.Build(SimSet)
	return nil, nil, nil
}
