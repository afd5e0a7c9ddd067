package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/observability"
)

// Service coordinates the scoring engine, configuration management and the
// activation swaps.
type Service struct {
	logger  *slog.Logger
	repo    Repository
	engine  *Engine
	cache   *ConfigCache
	metrics *observability.Metrics
}

// NewService builds a Service instance. cache and metrics may be nil.
func NewService(logger *slog.Logger, repo Repository, engine *Engine, cache *ConfigCache, metrics *observability.Metrics) *Service {
	return &Service{logger: logger, repo: repo, engine: engine, cache: cache, metrics: metrics}
}

// CreateConfig validates and stores a new, inactive configuration.
func (s *Service) CreateConfig(ctx context.Context, cfg Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	return s.repo.InsertConfig(ctx, cfg)
}

// ActivateConfig swaps the active configuration in one transaction:
// re-validate, deactivate all, mark the target active. A lost race surfaces
// as ErrConcurrentScoring and the caller retries.
func (s *Service) ActivateConfig(ctx context.Context, id uuid.UUID) (Config, error) {
	cfg, err := s.repo.GetConfig(ctx, id)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeactivateConfigs(ctx); err != nil {
			return err
		}
		return tx.MarkConfigActive(ctx, id)
	})
	if err != nil {
		return Config{}, err
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("config cache invalidation failed", slog.Any("error", err))
	}
	cfg.Activo = true
	s.logger.Info("scoring config activated", slog.String("config_id", id.String()), slog.String("nombre", cfg.Nombre))
	return cfg, nil
}

// ActiveConfig returns the currently active configuration, cached.
func (s *Service) ActiveConfig(ctx context.Context) (Config, error) {
	return s.cache.Active(ctx, s.repo.ActiveConfig)
}

// ScoreSupplier computes a supplier-scope score and activates it, retiring
// the previous active score for the company in the same transaction.
func (s *Service) ScoreSupplier(ctx context.Context, in SupplierInput) (Score, error) {
	cfg, err := s.ActiveConfig(ctx)
	if err != nil {
		return Score{}, err
	}
	score := s.engine.ComputeSupplierScore(in, cfg)
	return s.activate(ctx, score)
}

// ScoreDebtor computes a debtor-scope score and activates it.
func (s *Service) ScoreDebtor(ctx context.Context, in DebtorInput) (Score, error) {
	cfg, err := s.ActiveConfig(ctx)
	if err != nil {
		return Score{}, err
	}
	score := s.engine.ComputeDebtorScore(in, cfg)
	return s.activate(ctx, score)
}

// CurrentScore returns the active score for a subject and scope.
func (s *Service) CurrentScore(ctx context.Context, empresaID uuid.UUID, alcance ScoreScope) (Score, error) {
	return s.repo.CurrentScore(ctx, empresaID, alcance)
}

// ScoreHistory returns recent scores for a subject, newest first.
func (s *Service) ScoreHistory(ctx context.Context, empresaID uuid.UUID, limit int) ([]Score, error) {
	return s.repo.ListScores(ctx, empresaID, limit)
}

func (s *Service) activate(ctx context.Context, score Score) (Score, error) {
	if score.EmpresaID == uuid.Nil {
		return Score{}, fmt.Errorf("scoring: empresa id required")
	}

	var saved Score
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeactivateScores(ctx, score.EmpresaID, score.Alcance); err != nil {
			return err
		}
		var err error
		saved, err = tx.InsertScore(ctx, score)
		return err
	})
	if err != nil {
		return Score{}, err
	}

	s.metrics.ScoreComputed(string(saved.Alcance), string(saved.NivelRiesgo))
	s.logger.Info("score activated",
		slog.String("empresa_id", saved.EmpresaID.String()),
		slog.String("alcance", string(saved.Alcance)),
		slog.String("nivel_riesgo", string(saved.NivelRiesgo)),
	)
	return saved, nil
}
