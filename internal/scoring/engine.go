package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Engine computes supplier and debtor scores from externally supplied inputs
// and the active configuration. It is pure: it never mutates its inputs and
// never performs I/O.
type Engine struct {
	version string
	now     func() time.Time
}

// NewEngine builds an Engine stamping the current algorithm version.
func NewEngine() *Engine {
	return &Engine{version: AlgorithmVersion, now: time.Now}
}

type component struct {
	nombre  string
	weight  float64
	score   int
	present bool
}

// ComputeSupplierScore scores a company as a supplier. Missing components are
// excluded and the remaining weights re-normalized; the manual adjustment is
// applied after weighting and clamping happens last.
func (e *Engine) ComputeSupplierScore(in SupplierInput, cfg Config) Score {
	w := cfg.PesosProveedor

	comps := make([]component, 0, 6)
	finScore, finOK := scoreFinancial(in.Financiero)
	comps = appendComponent(comps, ComponentFinanciero, w.Financiero, finScore, finOK)
	payScore, payOK := scorePaymentHistory(in.HistorialPagos)
	comps = appendComponent(comps, ComponentHistorialPagos, w.HistorialPagos, payScore, payOK)
	ageScore, ageOK := scoreAge(in.AntiguedadAnios)
	comps = appendComponent(comps, ComponentAntiguedad, w.Antiguedad, ageScore, ageOK)
	secScore, secOK := scoreSector(in.Sector)
	comps = appendComponent(comps, ComponentSector, w.Sector, secScore, secOK)
	cmpScore, cmpOK := scoreCompliance(in.Financiero)
	comps = appendComponent(comps, ComponentCumplimiento, w.Cumplimiento, cmpScore, cmpOK)
	docScore, docOK := scoreDocumentation(in.DocumentacionPct)
	comps = appendComponent(comps, ComponentDocumentacion, w.Documentacion, docScore, docOK)

	score := e.assemble(in.EmpresaID, ScopeProveedor, comps, in.Ajuste, 0, cfg)
	score.LimiteFactoringSugerido = suggestedLimit(in.Financiero, score.NivelRiesgo)
	explain(&score)
	return score
}

// ComputeDebtorScore scores a party as a debtor. External debtors contribute
// only the bureau and age components; the closed-ecosystem bonus applies to
// internal debtors with relationship history, after the manual adjustment and
// before clamping.
func (e *Engine) ComputeDebtorScore(in DebtorInput, cfg Config) Score {
	w := cfg.PesosDeudor

	var financiero *FinancialInput
	if in.EsInterno {
		financiero = in.Financiero
	}

	comps := make([]component, 0, 4)
	histScore, histOK := scorePlatformHistory(in.HistorialPlataforma, in.EsInterno)
	comps = appendComponent(comps, ComponentHistorialPlataforma, w.HistorialPlataforma, histScore, histOK)
	finScore, finOK := scoreFinancial(financiero)
	comps = appendComponent(comps, ComponentFinanciero, w.Financiero, finScore, finOK)
	ageScore, ageOK := scoreAge(in.AntiguedadAnios)
	comps = appendComponent(comps, ComponentAntiguedad, w.Antiguedad, ageScore, ageOK)
	burScore, burOK := scoreExternalBureau(in.BuroExterno)
	comps = appendComponent(comps, ComponentBuroExterno, w.BuroExterno, burScore, burOK)

	bonus := 0
	if in.EsInterno && in.HistorialPlataforma != nil && in.HistorialPlataforma.Total() > 0 {
		bonus = cfg.BonusDeudorInterno
	}

	score := e.assemble(in.EmpresaID, ScopeDeudor, comps, in.Ajuste, bonus, cfg)
	if in.EsInterno {
		score.LimiteFactoringSugerido = suggestedLimit(in.Financiero, score.NivelRiesgo)
	}
	explain(&score)
	return score
}

func appendComponent(comps []component, nombre string, weight float64, score int, present bool) []component {
	return append(comps, component{nombre: nombre, weight: weight, score: score, present: present})
}

// assemble applies the shared weighting discipline: re-normalize available
// weights, add adjustment then bonus, clamp last. Zero available components
// produce a nil score classified as MUY_ALTO.
func (e *Engine) assemble(empresaID uuid.UUID, alcance ScoreScope, comps []component, ajuste *ManualAdjustment, bonus int, cfg Config) Score {
	var weighted, weights float64
	for _, c := range comps {
		if !c.present {
			continue
		}
		weighted += float64(c.score) * c.weight
		weights += c.weight
	}

	score := Score{
		ID:               uuid.New(),
		EmpresaID:        empresaID,
		Alcance:          alcance,
		NivelRiesgo:      TierMuyAlto,
		Componentes:      componentResults(comps, weights),
		VersionAlgoritmo: e.version,
		CalculadoPor:     "SISTEMA",
		CreatedAt:        e.now(),
	}
	if ajuste != nil {
		score.AjusteManual = ajuste.Delta
		score.MotivoAjuste = ajuste.Motivo
		if ajuste.Actor != uuid.Nil {
			actor := ajuste.Actor
			score.AjustadoPor = &actor
		}
	}

	if weights > 0 {
		raw := weighted/weights + float64(score.AjusteManual) + float64(bonus)
		puntaje := clampScore(raw)
		score.Puntaje = &puntaje
		score.NivelRiesgo = ClassifyRisk(puntaje, cfg.Umbrales)
	}

	tasa := cfg.TasasBase.For(score.NivelRiesgo)
	anticipo := cfg.Anticipos.For(score.NivelRiesgo)
	score.TasaDescuentoSugerida = &tasa
	score.AnticipoSugerido = &anticipo

	return score
}

func componentResults(comps []component, totalWeight float64) []ComponentResult {
	results := make([]ComponentResult, 0, len(comps))
	for _, c := range comps {
		res := ComponentResult{
			Nombre:     c.nombre,
			PesoBase:   c.weight,
			Disponible: c.present,
		}
		if c.present {
			res.Puntaje = c.score
			if totalWeight > 0 {
				res.Peso = math.Floor(c.weight/totalWeight*100*100+0.5) / 100
			}
		}
		results = append(results, res)
	}
	return results
}

// Suggested factoring limit: monthly net income scaled by a per-tier
// multiplier. Nil when the income figure is unknown.
var limitMultipliers = map[RiskTier]float64{
	TierMuyBajo: 3.0,
	TierBajo:    2.5,
	TierMedio:   2.0,
	TierAlto:    1.0,
	TierMuyAlto: 0.5,
}

func suggestedLimit(f *FinancialInput, tier RiskTier) *float64 {
	if f == nil || f.IngresosNetos == nil || *f.IngresosNetos <= 0 {
		return nil
	}
	monthly := *f.IngresosNetos / 12
	limit := math.Floor(monthly*limitMultipliers[tier]*100+0.5) / 100
	return &limit
}
