package factoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/scoring"
)

// ScoreSource supplies the active configuration and current scores. Satisfied
// by *scoring.Service.
type ScoreSource interface {
	ActiveConfig(ctx context.Context) (scoring.Config, error)
	CurrentScore(ctx context.Context, empresaID uuid.UUID, alcance scoring.ScoreScope) (scoring.Score, error)
}

// Repository defines factoring request data access.
type Repository interface {
	Insert(ctx context.Context, solicitud Solicitud) (Solicitud, error)
	Get(ctx context.Context, id uuid.UUID) (Solicitud, error)
	ListForEmpresa(ctx context.Context, empresaID uuid.UUID) ([]Solicitud, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado Estado, at time.Time) (Solicitud, error)
	NextCodigo(ctx context.Context) (string, error)
}

// AssembleInput collects the caller-supplied fields of a factoring request.
type AssembleInput struct {
	EmpresaID        uuid.UUID
	DeudorID         *uuid.UUID
	DeudorEsInterno  bool
	MontoTotal       float64
	ComisionFija     float64
	FechaVencimiento *time.Time
}

// Service assembles factoring requests from the supplier's current score and
// the active configuration.
type Service struct {
	logger *slog.Logger
	repo   Repository
	scores ScoreSource
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, scores ScoreSource) *Service {
	return &Service{logger: logger, repo: repo, scores: scores, now: time.Now}
}

// Assemble resolves the supplier's tier to advance and rate, applies the
// internal-debtor rate discount, computes the terms and persists the request
// as BORRADOR.
func (s *Service) Assemble(ctx context.Context, in AssembleInput) (Solicitud, error) {
	if in.EmpresaID == uuid.Nil {
		return Solicitud{}, fmt.Errorf("%w: empresa id required", ErrInvalidTerms)
	}

	cfg, err := s.scores.ActiveConfig(ctx)
	if err != nil {
		return Solicitud{}, err
	}

	score, err := s.scores.CurrentScore(ctx, in.EmpresaID, scoring.ScopeProveedor)
	if err != nil {
		return Solicitud{}, err
	}

	anticipo := cfg.Anticipos.For(score.NivelRiesgo)
	tasa := cfg.TasasBase.For(score.NivelRiesgo)
	if in.DeudorEsInterno {
		tasa -= cfg.DescuentoTasaDeudorInterno
		if tasa < cfg.TasaMinima {
			tasa = cfg.TasaMinima
		}
	}

	terms, err := ComputeTerms(in.MontoTotal, anticipo, tasa, in.ComisionFija)
	if err != nil {
		return Solicitud{}, err
	}

	if score.LimiteFactoringSugerido != nil && in.MontoTotal > *score.LimiteFactoringSugerido {
		s.logger.Warn("monto exceeds suggested factoring limit",
			slog.String("empresa_id", in.EmpresaID.String()),
			slog.Float64("monto", in.MontoTotal),
			slog.Float64("limite", *score.LimiteFactoringSugerido),
		)
	}

	codigo, err := s.repo.NextCodigo(ctx)
	if err != nil {
		return Solicitud{}, err
	}

	now := s.now()
	solicitud := Solicitud{
		ID:              uuid.New(),
		EmpresaID:       in.EmpresaID,
		Codigo:          codigo,
		DeudorID:        in.DeudorID,
		DeudorEsInterno: in.DeudorEsInterno,
		Terms:           terms,
		Estado:          EstadoBorrador,
		FechaSolicitud:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	scoreID := score.ID
	solicitud.ScoreID = &scoreID
	solicitud.ScoreAlSolicitar = score.Puntaje
	solicitud.FechaVencimiento = in.FechaVencimiento

	return s.repo.Insert(ctx, solicitud)
}

// Get returns a factoring request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Solicitud, error) {
	return s.repo.Get(ctx, id)
}

// ListForEmpresa returns the company's factoring requests, newest first.
func (s *Service) ListForEmpresa(ctx context.Context, empresaID uuid.UUID) ([]Solicitud, error) {
	return s.repo.ListForEmpresa(ctx, empresaID)
}

// Aprobar stamps the approval state and timestamp.
func (s *Service) Aprobar(ctx context.Context, id uuid.UUID) (Solicitud, error) {
	return s.repo.UpdateEstado(ctx, id, EstadoAprobada, s.now())
}

// Desembolsar stamps the disbursement state and timestamp.
func (s *Service) Desembolsar(ctx context.Context, id uuid.UUID) (Solicitud, error) {
	return s.repo.UpdateEstado(ctx, id, EstadoDesembolsada, s.now())
}

// IsNotFound reports whether err is the request-not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}
