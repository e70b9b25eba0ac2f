package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/adapters/filter"
	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/core"
	"github.com/mikey/bec-analyzer/internal/ports"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	holder *core.Holder
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, holder *core.Holder) *FilterFactory {
	return &FilterFactory{
		cfg:    cfg,
		logger: logger,
		holder: holder,
	}
}

// CreateEmailFilter creates the Postfix content filter from the server
// configuration.
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	srv := f.cfg.GetServer()
	return filter.NewPostfixFilter(
		f.holder,
		f.logger,
		srv.FilterAddress,
		srv.BlockCritical,
		srv.LevelHeader,
		srv.ScoreHeader,
		srv.FactorsHeader,
		srv.PostfixAddress,
		srv.PostfixPort,
		srv.PostfixEnabled,
	), nil
}
