package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines scoring data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetConfig(ctx context.Context, id uuid.UUID) (Config, error)
	ActiveConfig(ctx context.Context) (Config, error)
	InsertConfig(ctx context.Context, cfg Config) (Config, error)

	CurrentScore(ctx context.Context, empresaID uuid.UUID, alcance ScoreScope) (Score, error)
	ListScores(ctx context.Context, empresaID uuid.UUID, limit int) ([]Score, error)
}

// TxRepository defines the operations of an activation swap. Both swaps rely
// on partial unique indexes so that a concurrent activation surfaces as a
// unique violation instead of a second active row.
type TxRepository interface {
	DeactivateConfigs(ctx context.Context) error
	MarkConfigActive(ctx context.Context, id uuid.UUID) error

	DeactivateScores(ctx context.Context, empresaID uuid.UUID, alcance ScoreScope) error
	InsertScore(ctx context.Context, score Score) (Score, error)
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

type pgTxRepository struct {
	tx pgx.Tx
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, &pgTxRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const configColumns = `
	id, nombre, version, COALESCE(descripcion, ''),
	peso_financiero, peso_historial_pagos, peso_antiguedad, peso_sector, peso_cumplimiento, peso_documentacion,
	peso_deudor_historial_plataforma, peso_deudor_financiero, peso_deudor_antiguedad, peso_deudor_externo,
	umbral_muy_bajo, umbral_bajo, umbral_medio, umbral_alto,
	tasa_muy_bajo, tasa_bajo, tasa_medio, tasa_alto, tasa_muy_alto,
	anticipo_muy_bajo, anticipo_bajo, anticipo_medio, anticipo_alto, anticipo_muy_alto,
	bonus_deudor_interno, descuento_tasa_deudor_interno, tasa_minima,
	activo, created_at, updated_at`

func scanConfig(row pgx.Row) (Config, error) {
	var c Config
	err := row.Scan(
		&c.ID, &c.Nombre, &c.Version, &c.Descripcion,
		&c.PesosProveedor.Financiero, &c.PesosProveedor.HistorialPagos, &c.PesosProveedor.Antiguedad,
		&c.PesosProveedor.Sector, &c.PesosProveedor.Cumplimiento, &c.PesosProveedor.Documentacion,
		&c.PesosDeudor.HistorialPlataforma, &c.PesosDeudor.Financiero, &c.PesosDeudor.Antiguedad, &c.PesosDeudor.BuroExterno,
		&c.Umbrales.MuyBajo, &c.Umbrales.Bajo, &c.Umbrales.Medio, &c.Umbrales.Alto,
		&c.TasasBase.MuyBajo, &c.TasasBase.Bajo, &c.TasasBase.Medio, &c.TasasBase.Alto, &c.TasasBase.MuyAlto,
		&c.Anticipos.MuyBajo, &c.Anticipos.Bajo, &c.Anticipos.Medio, &c.Anticipos.Alto, &c.Anticipos.MuyAlto,
		&c.BonusDeudorInterno, &c.DescuentoTasaDeudorInterno, &c.TasaMinima,
		&c.Activo, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *pgRepository) GetConfig(ctx context.Context, id uuid.UUID) (Config, error) {
	cfg, err := scanConfig(r.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM configuracion_scoring WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrConfigNotFound
	}
	return cfg, err
}

func (r *pgRepository) ActiveConfig(ctx context.Context) (Config, error) {
	cfg, err := scanConfig(r.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM configuracion_scoring WHERE activo`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNoActiveConfig
	}
	return cfg, err
}

func (r *pgRepository) InsertConfig(ctx context.Context, cfg Config) (Config, error) {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	cfg.Activo = false

	_, err := r.pool.Exec(ctx, `
		INSERT INTO configuracion_scoring (
			id, nombre, version, descripcion,
			peso_financiero, peso_historial_pagos, peso_antiguedad, peso_sector, peso_cumplimiento, peso_documentacion,
			peso_deudor_historial_plataforma, peso_deudor_financiero, peso_deudor_antiguedad, peso_deudor_externo,
			umbral_muy_bajo, umbral_bajo, umbral_medio, umbral_alto,
			tasa_muy_bajo, tasa_bajo, tasa_medio, tasa_alto, tasa_muy_alto,
			anticipo_muy_bajo, anticipo_bajo, anticipo_medio, anticipo_alto, anticipo_muy_alto,
			bonus_deudor_interno, descuento_tasa_deudor_interno, tasa_minima,
			activo, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23,
			$24, $25, $26, $27, $28,
			$29, $30, $31,
			false, $32, $33
		)`,
		cfg.ID, cfg.Nombre, cfg.Version, cfg.Descripcion,
		cfg.PesosProveedor.Financiero, cfg.PesosProveedor.HistorialPagos, cfg.PesosProveedor.Antiguedad,
		cfg.PesosProveedor.Sector, cfg.PesosProveedor.Cumplimiento, cfg.PesosProveedor.Documentacion,
		cfg.PesosDeudor.HistorialPlataforma, cfg.PesosDeudor.Financiero, cfg.PesosDeudor.Antiguedad, cfg.PesosDeudor.BuroExterno,
		cfg.Umbrales.MuyBajo, cfg.Umbrales.Bajo, cfg.Umbrales.Medio, cfg.Umbrales.Alto,
		cfg.TasasBase.MuyBajo, cfg.TasasBase.Bajo, cfg.TasasBase.Medio, cfg.TasasBase.Alto, cfg.TasasBase.MuyAlto,
		cfg.Anticipos.MuyBajo, cfg.Anticipos.Bajo, cfg.Anticipos.Medio, cfg.Anticipos.Alto, cfg.Anticipos.MuyAlto,
		cfg.BonusDeudorInterno, cfg.DescuentoTasaDeudorInterno, cfg.TasaMinima,
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return Config{}, fmt.Errorf("scoring: insert config: %w", err)
	}
	return cfg, nil
}

const scoreColumns = `
	id, empresa_id, alcance, puntaje, nivel_riesgo, componentes,
	ajuste_manual, COALESCE(motivo_ajuste, ''), ajustado_por,
	limite_factoring_sugerido, tasa_descuento_sugerida, anticipo_sugerido,
	explicacion_corta, factores_positivos, factores_negativos, recomendaciones,
	version_algoritmo, es_vigente, calculado_por, created_at`

func scanScore(row pgx.Row) (Score, error) {
	var s Score
	var componentes []byte
	err := row.Scan(
		&s.ID, &s.EmpresaID, &s.Alcance, &s.Puntaje, &s.NivelRiesgo, &componentes,
		&s.AjusteManual, &s.MotivoAjuste, &s.AjustadoPor,
		&s.LimiteFactoringSugerido, &s.TasaDescuentoSugerida, &s.AnticipoSugerido,
		&s.ExplicacionCorta, &s.FactoresPositivos, &s.FactoresNegativos, &s.Recomendaciones,
		&s.VersionAlgoritmo, &s.EsVigente, &s.CalculadoPor, &s.CreatedAt,
	)
	if err != nil {
		return Score{}, err
	}
	if len(componentes) > 0 {
		if err := json.Unmarshal(componentes, &s.Componentes); err != nil {
			return Score{}, fmt.Errorf("scoring: decode componentes: %w", err)
		}
	}
	return s, nil
}

func (r *pgRepository) CurrentScore(ctx context.Context, empresaID uuid.UUID, alcance ScoreScope) (Score, error) {
	score, err := scanScore(r.pool.QueryRow(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE empresa_id = $1 AND alcance = $2 AND es_vigente`,
		empresaID, alcance))
	if errors.Is(err, pgx.ErrNoRows) {
		return Score{}, ErrScoreNotFound
	}
	return score, err
}

func (r *pgRepository) ListScores(ctx context.Context, empresaID uuid.UUID, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE empresa_id = $1 ORDER BY created_at DESC LIMIT $2`,
		empresaID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

func (t *pgTxRepository) DeactivateConfigs(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `UPDATE configuracion_scoring SET activo = false, updated_at = NOW() WHERE activo`)
	return err
}

func (t *pgTxRepository) MarkConfigActive(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `UPDATE configuracion_scoring SET activo = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConcurrentScoring
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

func (t *pgTxRepository) DeactivateScores(ctx context.Context, empresaID uuid.UUID, alcance ScoreScope) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE scores SET es_vigente = false WHERE empresa_id = $1 AND alcance = $2 AND es_vigente`,
		empresaID, alcance)
	return err
}

func (t *pgTxRepository) InsertScore(ctx context.Context, score Score) (Score, error) {
	componentes, err := json.Marshal(score.Componentes)
	if err != nil {
		return Score{}, fmt.Errorf("scoring: encode componentes: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO scores (
			id, empresa_id, alcance, puntaje, nivel_riesgo, componentes,
			ajuste_manual, motivo_ajuste, ajustado_por,
			limite_factoring_sugerido, tasa_descuento_sugerida, anticipo_sugerido,
			explicacion_corta, factores_positivos, factores_negativos, recomendaciones,
			version_algoritmo, es_vigente, calculado_por, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16,
			$17, true, $18, $19
		)`,
		score.ID, score.EmpresaID, score.Alcance, score.Puntaje, score.NivelRiesgo, componentes,
		score.AjusteManual, score.MotivoAjuste, score.AjustadoPor,
		score.LimiteFactoringSugerido, score.TasaDescuentoSugerida, score.AnticipoSugerido,
		score.ExplicacionCorta, score.FactoresPositivos, score.FactoresNegativos, score.Recomendaciones,
		score.VersionAlgoritmo, score.CalculadoPor, score.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Score{}, ErrConcurrentScoring
		}
		return Score{}, fmt.Errorf("scoring: insert score: %w", err)
	}
	score.EsVigente = true
	return score, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
