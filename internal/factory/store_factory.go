package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/adapters/store"
	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/ports"
)

// StoreFactory creates verdict stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerdictStore creates a verdict store based on the configuration
func (f *StoreFactory) CreateVerdictStore() (ports.VerdictStore, error) {
	storeType := f.cfg.GetString("store.type")
	retention, err := f.cfg.GetDuration("store.retention")
	if err != nil {
		return nil, fmt.Errorf("invalid store retention: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("store.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid store cleanup frequency: %w", err)
	}

	switch storeType {
	case "memory":
		return store.NewMemoryStore(f.logger, retention, cleanupFreq), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("store.sqlite_path")
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(sqlitePath, f.logger, retention, cleanupFreq)
	case "mysql":
		mysqlDSN := f.cfg.GetString("store.mysql_dsn")
		return store.NewMySQLStore(mysqlDSN, f.logger, retention, cleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
