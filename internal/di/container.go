package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/core"
	"github.com/mikey/bec-analyzer/internal/factory"
	"github.com/mikey/bec-analyzer/internal/logging"
	"github.com/mikey/bec-analyzer/internal/ports"
	"github.com/mikey/bec-analyzer/internal/server"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register trained scorer snapshot holder
	if err := container.Provide(func(f *factory.ScorerFactory) (*core.Holder, error) {
		scorer, err := f.CreateScorer()
		if err != nil {
			return nil, err
		}
		return core.NewHolder(scorer), nil
	}); err != nil {
		return nil, err
	}

	// Register verdict store
	if err := container.Provide(func(f *factory.StoreFactory) (ports.VerdictStore, error) {
		return f.CreateVerdictStore()
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func() *server.Metrics {
		return server.NewMetrics(prometheus.DefaultRegisterer)
	}); err != nil {
		return nil, err
	}

	// Register retrain hook
	if err := container.Provide(func(f *factory.ScorerFactory) server.RebuildFunc {
		return f.CreateScorer
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		holder *core.Holder,
		store ports.VerdictStore,
		rebuild server.RebuildFunc,
		metrics *server.Metrics,
		logger *zap.Logger,
	) *server.Server {
		return server.New(holder, store, rebuild, metrics, logger, cfg.GetServer().HTTPAddress)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
