package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/shared"
)

// AlgorithmVersion is stamped on every Score the engine produces.
const AlgorithmVersion = "1.0"

var (
	// ErrInvalidConfig indicates weights or thresholds that fail validation.
	ErrInvalidConfig = fmt.Errorf("scoring: invalid configuration: %w", shared.ErrValidation)
	// ErrConcurrentScoring indicates a lost race on an activation swap; callers retry.
	ErrConcurrentScoring = fmt.Errorf("scoring: concurrent activation conflict: %w", shared.ErrConflict)
	// ErrNoActiveConfig indicates that no configuration is currently active.
	ErrNoActiveConfig = fmt.Errorf("scoring: no active configuration: %w", shared.ErrConflict)
	// ErrConfigNotFound indicates an unknown configuration id.
	ErrConfigNotFound = fmt.Errorf("scoring: configuration not found: %w", shared.ErrNotFound)
	// ErrScoreNotFound indicates no current score for the subject and scope.
	ErrScoreNotFound = fmt.Errorf("scoring: score not found: %w", shared.ErrNotFound)
)

// RiskTier enumerates the five ordered risk classifications.
type RiskTier string

const (
	TierMuyBajo RiskTier = "MUY_BAJO"
	TierBajo    RiskTier = "BAJO"
	TierMedio   RiskTier = "MEDIO"
	TierAlto    RiskTier = "ALTO"
	TierMuyAlto RiskTier = "MUY_ALTO"
)

// ScoreScope separates supplier-side from debtor-side scores. The
// one-active-score invariant holds per subject and scope independently.
type ScoreScope string

const (
	ScopeProveedor ScoreScope = "PROVEEDOR"
	ScopeDeudor    ScoreScope = "DEUDOR"
)

// Component names used in score breakdowns.
const (
	ComponentFinanciero          = "financiero"
	ComponentHistorialPagos      = "historial_pagos"
	ComponentAntiguedad          = "antiguedad"
	ComponentSector              = "sector"
	ComponentCumplimiento        = "cumplimiento"
	ComponentDocumentacion       = "documentacion"
	ComponentHistorialPlataforma = "historial_plataforma"
	ComponentBuroExterno         = "buro_externo"
)

// Sector enumerates the economic sectors a company can declare.
type Sector string

const (
	SectorComercioRetail Sector = "COMERCIO_RETAIL"
	SectorManufactura    Sector = "MANUFACTURA"
	SectorServicios      Sector = "SERVICIOS"
	SectorConstruccion   Sector = "CONSTRUCCION"
	SectorTecnologia     Sector = "TECNOLOGIA"
	SectorAlimentos      Sector = "ALIMENTOS"
	SectorSalud          Sector = "SALUD"
	SectorTransporte     Sector = "TRANSPORTE"
	SectorAgricultura    Sector = "AGRICULTURA"
	SectorTurismo        Sector = "TURISMO"
	SectorEducacion      Sector = "EDUCACION"
	SectorFinanciero     Sector = "FINANCIERO"
	SectorOtro           Sector = "OTRO"
)

// SupplierWeights holds the six supplier-score component weights. They must sum to 100.
type SupplierWeights struct {
	Financiero     float64 `json:"peso_financiero"`
	HistorialPagos float64 `json:"peso_historial_pagos"`
	Antiguedad     float64 `json:"peso_antiguedad"`
	Sector         float64 `json:"peso_sector"`
	Cumplimiento   float64 `json:"peso_cumplimiento"`
	Documentacion  float64 `json:"peso_documentacion"`
}

// Sum returns the total of the supplier weights.
func (w SupplierWeights) Sum() float64 {
	return w.Financiero + w.HistorialPagos + w.Antiguedad + w.Sector + w.Cumplimiento + w.Documentacion
}

// DebtorWeights holds the four debtor-score component weights. They must sum to 100.
type DebtorWeights struct {
	HistorialPlataforma float64 `json:"peso_deudor_historial_plataforma"`
	Financiero          float64 `json:"peso_deudor_financiero"`
	Antiguedad          float64 `json:"peso_deudor_antiguedad"`
	BuroExterno         float64 `json:"peso_deudor_externo"`
}

// Sum returns the total of the debtor weights.
func (w DebtorWeights) Sum() float64 {
	return w.HistorialPlataforma + w.Financiero + w.Antiguedad + w.BuroExterno
}

// Thresholds holds the inclusive lower score bound of each tier above MUY_ALTO.
// They must be strictly descending and within [0, 100].
type Thresholds struct {
	MuyBajo int `json:"umbral_muy_bajo"`
	Bajo    int `json:"umbral_bajo"`
	Medio   int `json:"umbral_medio"`
	Alto    int `json:"umbral_alto"`
}

// TierTable maps each risk tier to a percentage value (base rate or advance).
type TierTable struct {
	MuyBajo float64 `json:"muy_bajo"`
	Bajo    float64 `json:"bajo"`
	Medio   float64 `json:"medio"`
	Alto    float64 `json:"alto"`
	MuyAlto float64 `json:"muy_alto"`
}

// For returns the table entry for a tier.
func (t TierTable) For(tier RiskTier) float64 {
	switch tier {
	case TierMuyBajo:
		return t.MuyBajo
	case TierBajo:
		return t.Bajo
	case TierMedio:
		return t.Medio
	case TierAlto:
		return t.Alto
	default:
		return t.MuyAlto
	}
}

// Config is the active parameter set of the scoring engine. At most one
// config is active system-wide; activating one deactivates the rest.
type Config struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Version     string    `json:"version"`
	Descripcion string    `json:"descripcion,omitempty"`

	PesosProveedor SupplierWeights `json:"pesos_proveedor"`
	PesosDeudor    DebtorWeights   `json:"pesos_deudor"`
	Umbrales       Thresholds      `json:"umbrales"`
	TasasBase      TierTable       `json:"tasas_base"`
	Anticipos      TierTable       `json:"anticipos"`

	BonusDeudorInterno         int     `json:"bonus_deudor_interno"`
	DescuentoTasaDeudorInterno float64 `json:"descuento_tasa_deudor_interno"`
	TasaMinima                 float64 `json:"tasa_minima"`

	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultConfig returns the baseline parameter set.
func DefaultConfig() Config {
	return Config{
		Nombre:  "Configuración base",
		Version: "1.0",
		PesosProveedor: SupplierWeights{
			Financiero:     30,
			HistorialPagos: 25,
			Antiguedad:     15,
			Sector:         10,
			Cumplimiento:   10,
			Documentacion:  10,
		},
		PesosDeudor: DebtorWeights{
			HistorialPlataforma: 40,
			Financiero:          30,
			Antiguedad:          15,
			BuroExterno:         15,
		},
		Umbrales: Thresholds{MuyBajo: 80, Bajo: 65, Medio: 50, Alto: 35},
		TasasBase: TierTable{
			MuyBajo: 3.50, Bajo: 5.00, Medio: 7.50, Alto: 12.00, MuyAlto: 18.00,
		},
		Anticipos: TierTable{
			MuyBajo: 90, Bajo: 85, Medio: 80, Alto: 70, MuyAlto: 60,
		},
		BonusDeudorInterno:         10,
		DescuentoTasaDeudorInterno: 2.00,
		TasaMinima:                 0,
	}
}

const weightTolerance = 0.01

// Validate checks weight sums and threshold ordering. It runs at config
// creation and activation time, never per score call.
func (c Config) Validate() error {
	if c.Nombre == "" {
		return fmt.Errorf("%w: nombre required", ErrInvalidConfig)
	}
	if diff := c.PesosProveedor.Sum() - 100; diff > weightTolerance || diff < -weightTolerance {
		return fmt.Errorf("%w: supplier weights sum to %.2f, want 100", ErrInvalidConfig, c.PesosProveedor.Sum())
	}
	if diff := c.PesosDeudor.Sum() - 100; diff > weightTolerance || diff < -weightTolerance {
		return fmt.Errorf("%w: debtor weights sum to %.2f, want 100", ErrInvalidConfig, c.PesosDeudor.Sum())
	}
	th := c.Umbrales
	if th.MuyBajo > 100 || th.Alto < 0 {
		return fmt.Errorf("%w: thresholds must lie within [0, 100]", ErrInvalidConfig)
	}
	if !(th.MuyBajo > th.Bajo && th.Bajo > th.Medio && th.Medio > th.Alto) {
		return fmt.Errorf("%w: thresholds must be strictly descending", ErrInvalidConfig)
	}
	if c.DescuentoTasaDeudorInterno < 0 {
		return fmt.Errorf("%w: internal debtor rate discount must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ComponentResult is the persisted breakdown of one score component.
// Peso is the weight actually used after re-normalization; PesoBase is the
// configured weight at computation time.
type ComponentResult struct {
	Nombre     string  `json:"nombre"`
	Puntaje    int     `json:"puntaje"`
	Peso       float64 `json:"peso"`
	PesoBase   float64 `json:"peso_base"`
	Disponible bool    `json:"disponible"`
}

// Score is a point-in-time scoring result for one subject and scope.
// Puntaje is nil when zero components were computable.
type Score struct {
	ID        uuid.UUID  `json:"id"`
	EmpresaID uuid.UUID  `json:"empresa_id"`
	Alcance   ScoreScope `json:"alcance"`

	Puntaje     *int     `json:"puntaje"`
	NivelRiesgo RiskTier `json:"nivel_riesgo"`

	Componentes []ComponentResult `json:"componentes"`

	AjusteManual int        `json:"ajuste_manual"`
	MotivoAjuste string     `json:"motivo_ajuste,omitempty"`
	AjustadoPor  *uuid.UUID `json:"ajustado_por,omitempty"`

	LimiteFactoringSugerido *float64 `json:"limite_factoring_sugerido"`
	TasaDescuentoSugerida   *float64 `json:"tasa_descuento_sugerida"`
	AnticipoSugerido        *float64 `json:"anticipo_sugerido"`

	ExplicacionCorta  string   `json:"explicacion_corta"`
	FactoresPositivos []string `json:"factores_positivos"`
	FactoresNegativos []string `json:"factores_negativos"`
	Recomendaciones   []string `json:"recomendaciones"`

	VersionAlgoritmo string    `json:"version_algoritmo"`
	EsVigente        bool      `json:"es_vigente"`
	CalculadoPor     string    `json:"calculado_por"`
	CreatedAt        time.Time `json:"created_at"`
}

// PaymentHistory summarises classified payments for a party.
type PaymentHistory struct {
	PagadasATiempo int `json:"pagadas_a_tiempo"`
	PagadasConMora int `json:"pagadas_con_mora"`
	PeorMoraDias   int `json:"peor_mora_dias"`
}

// Total returns the number of classified payments.
func (p PaymentHistory) Total() int {
	return p.PagadasATiempo + p.PagadasConMora
}

// PorcentajeATiempo returns the on-time percentage, 0 when no history.
func (p PaymentHistory) PorcentajeATiempo() float64 {
	total := p.Total()
	if total == 0 {
		return 0
	}
	return float64(p.PagadasATiempo) / float64(total) * 100
}

// ManualAdjustment is a reviewed delta applied on top of the weighted score.
type ManualAdjustment struct {
	Delta  int       `json:"delta"`
	Motivo string    `json:"motivo"`
	Actor  uuid.UUID `json:"actor"`
}

// SupplierInput collects everything the engine needs to score a company as a
// supplier. Nil fields mark components whose inputs are unavailable.
type SupplierInput struct {
	EmpresaID        uuid.UUID
	Financiero       *FinancialInput
	HistorialPagos   *PaymentHistory
	Sector           *Sector
	AntiguedadAnios  *float64
	DocumentacionPct *float64
	Ajuste           *ManualAdjustment
}

// DebtorInput collects everything the engine needs to score a party as a
// debtor. For external debtors the platform-history and financial components
// are unavailable by definition.
type DebtorInput struct {
	EmpresaID           uuid.UUID
	EsInterno           bool
	HistorialPlataforma *PaymentHistory
	Financiero          *FinancialInput
	AntiguedadAnios     *float64
	BuroExterno         *float64
	Ajuste              *ManualAdjustment
}
