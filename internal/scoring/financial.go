package scoring

// FinancialInput is a company's financial snapshot for one period. All
// monetary figures are optional; derived ratios stay nil when the inputs or
// denominators are missing. The engine treats this record as read-only.
type FinancialInput struct {
	PeriodoAno int  `json:"periodo_ano"`
	PeriodoMes *int `json:"periodo_mes,omitempty"`

	// Estado de resultados
	IngresosBrutos        *float64 `json:"ingresos_brutos,omitempty"`
	IngresosNetos         *float64 `json:"ingresos_netos,omitempty"`
	CostosOperativos      *float64 `json:"costos_operativos,omitempty"`
	GastosAdministrativos *float64 `json:"gastos_administrativos,omitempty"`
	UtilidadBruta         *float64 `json:"utilidad_bruta,omitempty"`
	UtilidadNeta          *float64 `json:"utilidad_neta,omitempty"`

	// USD equivalents are opaque annotations sourced from the exchange-rate
	// collaborator; the engine performs no currency logic.
	IngresosNetosUSD *float64 `json:"ingresos_netos_usd,omitempty"`
	TasaCambioUsada  *float64 `json:"tasa_cambio_usada,omitempty"`

	// Balance general
	ActivosTotales    *float64 `json:"activos_totales,omitempty"`
	ActivosCorrientes *float64 `json:"activos_corrientes,omitempty"`
	PasivosTotales    *float64 `json:"pasivos_totales,omitempty"`
	PasivosCorrientes *float64 `json:"pasivos_corrientes,omitempty"`
	Patrimonio        *float64 `json:"patrimonio,omitempty"`
	CuentasPorCobrar  *float64 `json:"cuentas_por_cobrar,omitempty"`
	CuentasPorPagar   *float64 `json:"cuentas_por_pagar,omitempty"`
	Inventarios       *float64 `json:"inventarios,omitempty"`

	// Flujo de caja
	FlujoCajaOperativo      *float64 `json:"flujo_caja_operativo,omitempty"`
	EfectivoDisponible      *float64 `json:"efectivo_disponible,omitempty"`
	DeudaBancariaCortoPlazo *float64 `json:"deuda_bancaria_corto_plazo,omitempty"`
	DeudaBancariaLargoPlazo *float64 `json:"deuda_bancaria_largo_plazo,omitempty"`

	// Ratios derivados
	RatioLiquidez       *float64 `json:"ratio_liquidez,omitempty"`
	RatioEndeudamiento  *float64 `json:"ratio_endeudamiento,omitempty"`
	RatioCoberturaDeuda *float64 `json:"ratio_cobertura_deuda,omitempty"`
	MargenNeto          *float64 `json:"margen_neto,omitempty"`

	// Cumplimiento tributario
	AlDiaSeniat *bool `json:"al_dia_seniat,omitempty"`
	AlDiaIVSS   *bool `json:"al_dia_ivss,omitempty"`
	AlDiaFAOV   *bool `json:"al_dia_faov,omitempty"`
	AlDiaINCES  *bool `json:"al_dia_inces,omitempty"`

	DatosVerificados bool `json:"datos_verificados"`
}

// Normalized returns a copy with derived ratios filled in where the inputs
// allow. This is the explicit write-path normalization step; the original
// record is not touched.
func (f FinancialInput) Normalized() FinancialInput {
	if f.RatioLiquidez == nil {
		f.RatioLiquidez = safeRatio(f.ActivosCorrientes, f.PasivosCorrientes)
	}
	if f.RatioEndeudamiento == nil {
		f.RatioEndeudamiento = safeRatio(f.PasivosTotales, f.ActivosTotales)
	}
	if f.RatioCoberturaDeuda == nil {
		f.RatioCoberturaDeuda = safeRatio(f.FlujoCajaOperativo, sumPtr(f.DeudaBancariaCortoPlazo, f.DeudaBancariaLargoPlazo))
	}
	if f.MargenNeto == nil {
		f.MargenNeto = safeRatio(f.UtilidadNeta, f.IngresosNetos)
	}
	return f
}

// ComplianceFlags reports how many of the four tax/social-security flags are
// known and how many are met. known is false when all four are nil.
func (f FinancialInput) ComplianceFlags() (met, total int, known bool) {
	for _, flag := range []*bool{f.AlDiaSeniat, f.AlDiaIVSS, f.AlDiaFAOV, f.AlDiaINCES} {
		total++
		if flag != nil {
			known = true
			if *flag {
				met++
			}
		}
	}
	return met, total, known
}

func safeRatio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	r := *num / *den
	return &r
}

func sumPtr(a, b *float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	var total float64
	if a != nil {
		total += *a
	}
	if b != nil {
		total += *b
	}
	return &total
}
