package scoring

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

// DataSource assembles fully-populated engine inputs from the company and
// financial-data stores. The engine itself never fetches data; this adapter
// is the boundary with those collaborators.
type DataSource interface {
	SupplierInput(ctx context.Context, empresaID uuid.UUID) (SupplierInput, error)
	DebtorInput(ctx context.Context, empresaID uuid.UUID) (DebtorInput, error)
}

// ErrEmpresaNotFound indicates an unknown company id.
var ErrEmpresaNotFound = fmt.Errorf("scoring: empresa not found: %w", shared.ErrNotFound)

type pgDataSource struct {
	pool *pgxpool.Pool
}

// NewDataSource builds a PostgreSQL backed DataSource.
func NewDataSource(pool *pgxpool.Pool) DataSource {
	return &pgDataSource{pool: pool}
}

func (d *pgDataSource) SupplierInput(ctx context.Context, empresaID uuid.UUID) (SupplierInput, error) {
	in := SupplierInput{EmpresaID: empresaID}

	sector, antiguedad, err := d.empresaProfile(ctx, empresaID)
	if err != nil {
		return SupplierInput{}, err
	}
	in.Sector = sector
	in.AntiguedadAnios = antiguedad

	fin, err := d.latestFinancials(ctx, empresaID)
	if err != nil {
		return SupplierInput{}, err
	}
	in.Financiero = fin

	// The company's own payment behavior: ledger rows where it is the client.
	historial, err := d.paymentHistoryAsCliente(ctx, empresaID)
	if err != nil {
		return SupplierInput{}, err
	}
	in.HistorialPagos = historial

	doc, err := d.documentationPct(ctx, empresaID)
	if err != nil {
		return SupplierInput{}, err
	}
	in.DocumentacionPct = doc

	return in, nil
}

func (d *pgDataSource) DebtorInput(ctx context.Context, empresaID uuid.UUID) (DebtorInput, error) {
	in := DebtorInput{EmpresaID: empresaID, EsInterno: true}

	_, antiguedad, err := d.empresaProfile(ctx, empresaID)
	if err != nil {
		return DebtorInput{}, err
	}
	in.AntiguedadAnios = antiguedad

	fin, err := d.latestFinancials(ctx, empresaID)
	if err != nil {
		return DebtorInput{}, err
	}
	in.Financiero = fin

	historial, err := d.paymentHistoryAsCliente(ctx, empresaID)
	if err != nil {
		return DebtorInput{}, err
	}
	in.HistorialPlataforma = historial

	return in, nil
}

func (d *pgDataSource) empresaProfile(ctx context.Context, empresaID uuid.UUID) (*Sector, *float64, error) {
	var sector *string
	var fechaConstitucion *time.Time
	err := d.pool.QueryRow(ctx,
		`SELECT sector, fecha_constitucion FROM empresas WHERE id = $1`, empresaID).
		Scan(&sector, &fechaConstitucion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrEmpresaNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scoring: load empresa: %w", err)
	}

	var sec *Sector
	if sector != nil && *sector != "" {
		s := Sector(*sector)
		sec = &s
	}
	var antiguedad *float64
	if fechaConstitucion != nil {
		years := time.Since(*fechaConstitucion).Hours() / 24 / 365.25
		antiguedad = &years
	}
	return sec, antiguedad, nil
}

func (d *pgDataSource) latestFinancials(ctx context.Context, empresaID uuid.UUID) (*FinancialInput, error) {
	var f FinancialInput
	err := d.pool.QueryRow(ctx, `
		SELECT periodo_ano, periodo_mes,
			ingresos_brutos, ingresos_netos, costos_operativos, gastos_administrativos,
			utilidad_bruta, utilidad_neta, ingresos_netos_usd, tasa_cambio_usada,
			activos_totales, activos_corrientes, pasivos_totales, pasivos_corrientes,
			patrimonio, cuentas_por_cobrar, cuentas_por_pagar, inventarios,
			flujo_caja_operativo, efectivo_disponible, deuda_bancaria_corto_plazo, deuda_bancaria_largo_plazo,
			ratio_liquidez, ratio_endeudamiento, ratio_cobertura_deuda, margen_neto,
			al_dia_seniat, al_dia_ivss, al_dia_faov, al_dia_inces,
			datos_verificados
		FROM datos_financieros
		WHERE empresa_id = $1
		ORDER BY periodo_ano DESC, COALESCE(periodo_mes, 0) DESC
		LIMIT 1`, empresaID).Scan(
		&f.PeriodoAno, &f.PeriodoMes,
		&f.IngresosBrutos, &f.IngresosNetos, &f.CostosOperativos, &f.GastosAdministrativos,
		&f.UtilidadBruta, &f.UtilidadNeta, &f.IngresosNetosUSD, &f.TasaCambioUsada,
		&f.ActivosTotales, &f.ActivosCorrientes, &f.PasivosTotales, &f.PasivosCorrientes,
		&f.Patrimonio, &f.CuentasPorCobrar, &f.CuentasPorPagar, &f.Inventarios,
		&f.FlujoCajaOperativo, &f.EfectivoDisponible, &f.DeudaBancariaCortoPlazo, &f.DeudaBancariaLargoPlazo,
		&f.RatioLiquidez, &f.RatioEndeudamiento, &f.RatioCoberturaDeuda, &f.MargenNeto,
		&f.AlDiaSeniat, &f.AlDiaIVSS, &f.AlDiaFAOV, &f.AlDiaINCES,
		&f.DatosVerificados,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scoring: load datos financieros: %w", err)
	}
	norm := f.Normalized()
	return &norm, nil
}

func (d *pgDataSource) paymentHistoryAsCliente(ctx context.Context, empresaID uuid.UUID) (*PaymentHistory, error) {
	var p PaymentHistory
	var pairs int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(facturas_pagadas_a_tiempo), 0),
			COALESCE(SUM(facturas_pagadas_con_mora), 0),
			COALESCE(MAX(peor_mora_dias), 0)
		FROM relaciones_comerciales
		WHERE empresa_cliente_id = $1`, empresaID).
		Scan(&pairs, &p.PagadasATiempo, &p.PagadasConMora, &p.PeorMoraDias)
	if err != nil {
		return nil, fmt.Errorf("scoring: load historial: %w", err)
	}
	if pairs == 0 {
		return nil, nil
	}
	return &p, nil
}

func (d *pgDataSource) documentationPct(ctx context.Context, empresaID uuid.UUID) (*float64, error) {
	var total, verificados int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE verificado)
		FROM documentos
		WHERE empresa_id = $1`, empresaID).
		Scan(&total, &verificados)
	if err != nil {
		return nil, fmt.Errorf("scoring: load documentos: %w", err)
	}
	if total == 0 {
		return nil, nil
	}
	pct := float64(verificados) / float64(total) * 100
	return &pct, nil
}
