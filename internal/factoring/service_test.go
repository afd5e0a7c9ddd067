package factoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kinia-ve/kinia/internal/scoring"
)

type fakeScoreSource struct {
	cfg   scoring.Config
	score scoring.Score
	err   error
}

func (f *fakeScoreSource) ActiveConfig(ctx context.Context) (scoring.Config, error) {
	if f.err != nil {
		return scoring.Config{}, f.err
	}
	return f.cfg, nil
}

func (f *fakeScoreSource) CurrentScore(ctx context.Context, empresaID uuid.UUID, alcance scoring.ScoreScope) (scoring.Score, error) {
	if f.err != nil {
		return scoring.Score{}, f.err
	}
	return f.score, nil
}

type memoryFactoringRepo struct {
	solicitudes map[uuid.UUID]Solicitud
	seq         int64
}

func newMemoryFactoringRepo() *memoryFactoringRepo {
	return &memoryFactoringRepo{solicitudes: make(map[uuid.UUID]Solicitud)}
}

func (r *memoryFactoringRepo) Insert(ctx context.Context, s Solicitud) (Solicitud, error) {
	r.solicitudes[s.ID] = s
	return s, nil
}

func (r *memoryFactoringRepo) Get(ctx context.Context, id uuid.UUID) (Solicitud, error) {
	s, ok := r.solicitudes[id]
	if !ok {
		return Solicitud{}, ErrRequestNotFound
	}
	return s, nil
}

func (r *memoryFactoringRepo) ListForEmpresa(ctx context.Context, empresaID uuid.UUID) ([]Solicitud, error) {
	var out []Solicitud
	for _, s := range r.solicitudes {
		if s.EmpresaID == empresaID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryFactoringRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado Estado, at time.Time) (Solicitud, error) {
	s, ok := r.solicitudes[id]
	if !ok {
		return Solicitud{}, ErrRequestNotFound
	}
	s.Estado = estado
	s.UpdatedAt = at
	switch estado {
	case EstadoAprobada:
		s.FechaAprobacion = &at
	case EstadoDesembolsada:
		s.FechaDesembolso = &at
	}
	r.solicitudes[id] = s
	return s, nil
}

func (r *memoryFactoringRepo) NextCodigo(ctx context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("FAC-%06d", r.seq), nil
}

func scoreForTier(tier scoring.RiskTier, puntaje int) scoring.Score {
	return scoring.Score{
		ID:          uuid.New(),
		EmpresaID:   uuid.New(),
		Alcance:     scoring.ScopeProveedor,
		Puntaje:     &puntaje,
		NivelRiesgo: tier,
		EsVigente:   true,
	}
}

func newFactoringService(repo Repository, scores ScoreSource) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, scores)
}

func TestAssembleResolvesTierTerms(t *testing.T) {
	repo := newMemoryFactoringRepo()
	source := &fakeScoreSource{
		cfg:   scoring.DefaultConfig(),
		score: scoreForTier(scoring.TierBajo, 70),
	}
	svc := newFactoringService(repo, source)

	solicitud, err := svc.Assemble(context.Background(), AssembleInput{
		EmpresaID:  uuid.New(),
		MontoTotal: 10_000,
	})
	require.NoError(t, err)

	// BAJO tier: 85% advance, 5% rate.
	require.InDelta(t, 85, solicitud.PorcentajeAnticipo, 0.001)
	require.InDelta(t, 5, solicitud.TasaDescuento, 0.001)
	require.InDelta(t, 8500, solicitud.MontoAnticipo, 0.001)
	require.InDelta(t, 500, solicitud.MontoComisionTotal, 0.001)
	require.InDelta(t, 8000, solicitud.MontoADesembolsar, 0.001)
	require.Equal(t, EstadoBorrador, solicitud.Estado)
	require.Equal(t, "FAC-000001", solicitud.Codigo)
	require.NotNil(t, solicitud.ScoreAlSolicitar)
	require.Equal(t, 70, *solicitud.ScoreAlSolicitar)
	require.NotNil(t, solicitud.ScoreID)
}

func TestAssembleInternalDebtorDiscount(t *testing.T) {
	repo := newMemoryFactoringRepo()
	cfg := scoring.DefaultConfig()
	source := &fakeScoreSource{cfg: cfg, score: scoreForTier(scoring.TierMedio, 55)}
	svc := newFactoringService(repo, source)
	deudor := uuid.New()

	solicitud, err := svc.Assemble(context.Background(), AssembleInput{
		EmpresaID:       uuid.New(),
		DeudorID:        &deudor,
		DeudorEsInterno: true,
		MontoTotal:      10_000,
	})
	require.NoError(t, err)

	// MEDIO base rate 7.5 minus the 2-point internal-debtor discount.
	require.InDelta(t, 5.5, solicitud.TasaDescuento, 0.001)
	require.True(t, solicitud.DeudorEsInterno)
}

func TestAssembleDiscountFloorsAtMinimumRate(t *testing.T) {
	repo := newMemoryFactoringRepo()
	cfg := scoring.DefaultConfig()
	cfg.TasasBase.MuyBajo = 3.0
	cfg.DescuentoTasaDeudorInterno = 5.0
	cfg.TasaMinima = 1.5
	source := &fakeScoreSource{cfg: cfg, score: scoreForTier(scoring.TierMuyBajo, 90)}
	svc := newFactoringService(repo, source)
	deudor := uuid.New()

	solicitud, err := svc.Assemble(context.Background(), AssembleInput{
		EmpresaID:       uuid.New(),
		DeudorID:        &deudor,
		DeudorEsInterno: true,
		MontoTotal:      1_000,
	})
	require.NoError(t, err)
	require.InDelta(t, 1.5, solicitud.TasaDescuento, 0.001)
}

func TestAssembleRequiresCurrentScore(t *testing.T) {
	repo := newMemoryFactoringRepo()
	source := &fakeScoreSource{err: scoring.ErrScoreNotFound}
	svc := newFactoringService(repo, source)

	_, err := svc.Assemble(context.Background(), AssembleInput{
		EmpresaID:  uuid.New(),
		MontoTotal: 1_000,
	})
	require.ErrorIs(t, err, scoring.ErrScoreNotFound)
}

func TestAssembleRejectsInvalidAmount(t *testing.T) {
	repo := newMemoryFactoringRepo()
	source := &fakeScoreSource{
		cfg:   scoring.DefaultConfig(),
		score: scoreForTier(scoring.TierBajo, 70),
	}
	svc := newFactoringService(repo, source)

	_, err := svc.Assemble(context.Background(), AssembleInput{
		EmpresaID:  uuid.New(),
		MontoTotal: 0,
	})
	require.ErrorIs(t, err, ErrInvalidTerms)
}

func TestAprobarAndDesembolsarStampFechas(t *testing.T) {
	repo := newMemoryFactoringRepo()
	source := &fakeScoreSource{
		cfg:   scoring.DefaultConfig(),
		score: scoreForTier(scoring.TierBajo, 70),
	}
	svc := newFactoringService(repo, source)
	ctx := context.Background()

	solicitud, err := svc.Assemble(ctx, AssembleInput{EmpresaID: uuid.New(), MontoTotal: 5_000})
	require.NoError(t, err)

	approved, err := svc.Aprobar(ctx, solicitud.ID)
	require.NoError(t, err)
	require.Equal(t, EstadoAprobada, approved.Estado)
	require.NotNil(t, approved.FechaAprobacion)

	disbursed, err := svc.Desembolsar(ctx, solicitud.ID)
	require.NoError(t, err)
	require.Equal(t, EstadoDesembolsada, disbursed.Estado)
	require.NotNil(t, disbursed.FechaDesembolso)

	_, err = svc.Aprobar(ctx, uuid.New())
	require.ErrorIs(t, err, ErrRequestNotFound)
}
