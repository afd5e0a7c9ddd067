package factoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const solicitudColumns = `id, empresa_id, codigo_solicitud, score_id, score_al_solicitar,
	deudor_id, deudor_es_interno,
	monto_facturas_total, porcentaje_anticipo, monto_anticipo, tasa_descuento,
	comision_fija, monto_comision_total, monto_a_desembolsar, monto_retenido,
	estado, fecha_solicitud, fecha_aprobacion, fecha_desembolso, fecha_vencimiento,
	created_at, updated_at`

type pgRepository struct {
	db *pgxpool.Pool
}

// NewRepository builds a PostgreSQL-backed factoring repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &pgRepository{db: db}
}

func scanSolicitud(row pgx.Row) (Solicitud, error) {
	var s Solicitud
	err := row.Scan(
		&s.ID, &s.EmpresaID, &s.Codigo, &s.ScoreID, &s.ScoreAlSolicitar,
		&s.DeudorID, &s.DeudorEsInterno,
		&s.MontoFacturasTotal, &s.PorcentajeAnticipo, &s.MontoAnticipo, &s.TasaDescuento,
		&s.ComisionFija, &s.MontoComisionTotal, &s.MontoADesembolsar, &s.MontoRetenido,
		&s.Estado, &s.FechaSolicitud, &s.FechaAprobacion, &s.FechaDesembolso, &s.FechaVencimiento,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Solicitud{}, ErrRequestNotFound
	}
	if err != nil {
		return Solicitud{}, fmt.Errorf("factoring: scan solicitud: %w", err)
	}
	return s, nil
}

func (r *pgRepository) Insert(ctx context.Context, s Solicitud) (Solicitud, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO solicitudes_factoring (
			id, empresa_id, codigo_solicitud, score_id, score_al_solicitar,
			deudor_id, deudor_es_interno,
			monto_facturas_total, porcentaje_anticipo, monto_anticipo, tasa_descuento,
			comision_fija, monto_comision_total, monto_a_desembolsar, monto_retenido,
			estado, fecha_solicitud, fecha_vencimiento, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		RETURNING `+solicitudColumns,
		s.ID, s.EmpresaID, s.Codigo, s.ScoreID, s.ScoreAlSolicitar,
		s.DeudorID, s.DeudorEsInterno,
		s.MontoFacturasTotal, s.PorcentajeAnticipo, s.MontoAnticipo, s.TasaDescuento,
		s.ComisionFija, s.MontoComisionTotal, s.MontoADesembolsar, s.MontoRetenido,
		s.Estado, s.FechaSolicitud, s.FechaVencimiento, s.CreatedAt, s.UpdatedAt,
	)
	return scanSolicitud(row)
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Solicitud, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+solicitudColumns+` FROM solicitudes_factoring WHERE id = $1`, id)
	return scanSolicitud(row)
}

func (r *pgRepository) ListForEmpresa(ctx context.Context, empresaID uuid.UUID) ([]Solicitud, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+solicitudColumns+`
		 FROM solicitudes_factoring
		 WHERE empresa_id = $1
		 ORDER BY fecha_solicitud DESC`, empresaID)
	if err != nil {
		return nil, fmt.Errorf("factoring: list solicitudes: %w", err)
	}
	defer rows.Close()

	var out []Solicitud
	for rows.Next() {
		s, err := scanSolicitud(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) UpdateEstado(ctx context.Context, id uuid.UUID, estado Estado, at time.Time) (Solicitud, error) {
	var stampColumn string
	switch estado {
	case EstadoAprobada:
		stampColumn = "fecha_aprobacion"
	case EstadoDesembolsada:
		stampColumn = "fecha_desembolso"
	}

	query := `UPDATE solicitudes_factoring SET estado = $2, updated_at = $3`
	if stampColumn != "" {
		query += `, ` + stampColumn + ` = $3`
	}
	query += ` WHERE id = $1 RETURNING ` + solicitudColumns

	row := r.db.QueryRow(ctx, query, id, estado, at)
	return scanSolicitud(row)
}

func (r *pgRepository) NextCodigo(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('solicitudes_factoring_codigo_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("factoring: next codigo: %w", err)
	}
	return fmt.Sprintf("FAC-%06d", n), nil
}
