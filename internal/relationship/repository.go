package relationship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinia-ve/kinia/internal/shared"
)

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

const statsColumns = `
	id, empresa_proveedora_id, empresa_cliente_id,
	total_facturas, total_facturado, total_pagado, saldo_pendiente,
	promedio_dias_pago, facturas_pagadas_a_tiempo, facturas_pagadas_con_mora, peor_mora_dias,
	primera_transaccion, ultima_transaccion, score_relacion,
	created_at, updated_at`

func scanStats(row pgx.Row) (Stats, error) {
	var s Stats
	err := row.Scan(
		&s.ID, &s.ProveedorID, &s.ClienteID,
		&s.TotalFacturas, &s.TotalFacturado, &s.TotalPagado, &s.SaldoPendiente,
		&s.PromedioDiasPago, &s.PagadasATiempo, &s.PagadasConMora, &s.PeorMoraDias,
		&s.PrimeraTransaccion, &s.UltimaTransaccion, &s.ScoreRelacion,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *pgRepository) Get(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, error) {
	stats, err := scanStats(r.pool.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM relaciones_comerciales
		 WHERE empresa_proveedora_id = $1 AND empresa_cliente_id = $2`,
		proveedorID, clienteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, ErrStatsNotFound
	}
	return stats, err
}

func (r *pgRepository) ListForCliente(ctx context.Context, clienteID uuid.UUID) ([]Stats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+statsColumns+` FROM relaciones_comerciales WHERE empresa_cliente_id = $1`,
		clienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Stats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, stats)
	}
	return all, rows.Err()
}

func (t *pgTxRepository) ClaimEvent(ctx context.Context, eventID string) error {
	return shared.ClaimEvent(ctx, t.tx, eventID, "relaciones")
}

func (t *pgTxRepository) GetForUpdate(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, bool, error) {
	stats, err := scanStats(t.tx.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM relaciones_comerciales
		 WHERE empresa_proveedora_id = $1 AND empresa_cliente_id = $2
		 FOR UPDATE`,
		proveedorID, clienteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, false, nil
	}
	if err != nil {
		return Stats{}, false, err
	}
	return stats, true, nil
}

func (t *pgTxRepository) Save(ctx context.Context, stats Stats) (Stats, error) {
	if stats.ID == uuid.Nil {
		stats.ID = uuid.New()
		stats.CreatedAt = time.Now()
	}
	stats.UpdatedAt = time.Now()
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = stats.UpdatedAt
	}

	_, err := t.tx.Exec(ctx, `
		INSERT INTO relaciones_comerciales (
			id, empresa_proveedora_id, empresa_cliente_id,
			total_facturas, total_facturado, total_pagado, saldo_pendiente,
			promedio_dias_pago, facturas_pagadas_a_tiempo, facturas_pagadas_con_mora, peor_mora_dias,
			primera_transaccion, ultima_transaccion, score_relacion,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (empresa_proveedora_id, empresa_cliente_id) DO UPDATE SET
			total_facturas = EXCLUDED.total_facturas,
			total_facturado = EXCLUDED.total_facturado,
			total_pagado = EXCLUDED.total_pagado,
			saldo_pendiente = EXCLUDED.saldo_pendiente,
			promedio_dias_pago = EXCLUDED.promedio_dias_pago,
			facturas_pagadas_a_tiempo = EXCLUDED.facturas_pagadas_a_tiempo,
			facturas_pagadas_con_mora = EXCLUDED.facturas_pagadas_con_mora,
			peor_mora_dias = EXCLUDED.peor_mora_dias,
			primera_transaccion = EXCLUDED.primera_transaccion,
			ultima_transaccion = EXCLUDED.ultima_transaccion,
			score_relacion = EXCLUDED.score_relacion,
			updated_at = EXCLUDED.updated_at`,
		stats.ID, stats.ProveedorID, stats.ClienteID,
		stats.TotalFacturas, stats.TotalFacturado, stats.TotalPagado, stats.SaldoPendiente,
		stats.PromedioDiasPago, stats.PagadasATiempo, stats.PagadasConMora, stats.PeorMoraDias,
		stats.PrimeraTransaccion, stats.UltimaTransaccion, stats.ScoreRelacion,
		stats.CreatedAt, stats.UpdatedAt,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("relationship: save stats: %w", err)
	}
	return stats, nil
}
