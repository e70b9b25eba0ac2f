package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/adapters/ingest"
	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/core"
	"github.com/mikey/bec-analyzer/internal/demo"
)

// ScorerFactory builds trained scorer snapshots from configuration.
// The same factory serves initial startup and /api/retrain.
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateScorer builds a scorer and trains it from the configured
// corpus. With no corpus directory and demo training disabled, the
// scorer is returned untrained and Analyze reports it as not ready.
func (f *ScorerFactory) CreateScorer() (*core.Scorer, error) {
	org := f.cfg.GetOrg()
	fusion := f.cfg.GetFusion()

	weights := core.Weights{
		Trust:      fusion.TrustWeight,
		Temporal:   fusion.TemporalWeight,
		Stylometry: fusion.StylometryWeight,
		Payment:    fusion.PaymentWeight,
	}

	scorer, err := core.NewScorer(org.Domain, org.Executives, weights, f.logger)
	if err != nil {
		return nil, err
	}

	corpusDir := f.cfg.GetString("training.corpus_dir")
	if corpusDir != "" {
		count, err := f.trainFromDir(scorer, corpusDir)
		if err != nil {
			return nil, err
		}
		if err := scorer.FinalizeTraining(); err != nil {
			return nil, err
		}
		f.logger.Info("Trained from corpus directory",
			zap.String("dir", corpusDir),
			zap.Int("emails", count))
		return scorer, nil
	}

	if f.cfg.GetBool("training.use_demo_corpus") {
		count, err := demo.Train(scorer, org.Domain, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		f.logger.Info("Trained from demo corpus", zap.Int("emails", count))
		return scorer, nil
	}

	f.logger.Warn("No training corpus configured, scorer starts untrained")
	return scorer, nil
}

// trainFromDir feeds every .eml file under dir into the scorer. Files
// that fail to parse are skipped with a warning rather than aborting
// the whole run.
func (f *ScorerFactory) trainFromDir(scorer *core.Scorer, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".eml") {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		email, parseErr := ingest.ParseMessage(file, info.ModTime().UTC())
		file.Close()
		if parseErr != nil {
			f.logger.Warn("Skipping unparseable message",
				zap.String("path", path),
				zap.Error(parseErr))
			return nil
		}

		if trainErr := scorer.Train(email); trainErr != nil {
			f.logger.Warn("Skipping training record",
				zap.String("path", path),
				zap.Error(trainErr))
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	return count, nil
}
