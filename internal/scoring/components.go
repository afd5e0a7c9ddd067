package scoring

import "math"

// Component scorers map raw inputs to a 0-100 sub-score. Each returns
// ok=false when its required inputs are absent, which excludes the component
// (and its weight) from the overall score rather than failing the call.

// scoreFinancial mixes ratio bands: liquidity 30%, leverage 30%, debt
// coverage 20%, net margin 20%. Sub-inputs that are missing drop out and the
// remaining bands are re-weighted, mirroring the overall partial-data rule.
func scoreFinancial(f *FinancialInput) (int, bool) {
	if f == nil {
		return 0, false
	}
	norm := f.Normalized()

	type band struct {
		score  float64
		weight float64
		ok     bool
	}
	bands := []band{
		{liquidityBand(norm.RatioLiquidez), 30, norm.RatioLiquidez != nil},
		{leverageBand(norm.RatioEndeudamiento), 30, norm.RatioEndeudamiento != nil},
		{coverageBand(norm.RatioCoberturaDeuda), 20, norm.RatioCoberturaDeuda != nil},
		{marginBand(norm.MargenNeto), 20, norm.MargenNeto != nil},
	}

	var weighted, weights float64
	for _, b := range bands {
		if !b.ok {
			continue
		}
		weighted += b.score * b.weight
		weights += b.weight
	}
	if weights == 0 {
		return 0, false
	}
	return clampScore(weighted / weights), true
}

func liquidityBand(r *float64) float64 {
	if r == nil {
		return 0
	}
	switch v := *r; {
	case v >= 2.0:
		return 100
	case v >= 1.5:
		return 85
	case v >= 1.2:
		return 70
	case v >= 1.0:
		return 55
	case v >= 0.8:
		return 35
	default:
		return 15
	}
}

// leverageBand rewards low indebtedness (pasivos/activos).
func leverageBand(r *float64) float64 {
	if r == nil {
		return 0
	}
	switch v := *r; {
	case v <= 0.30:
		return 100
	case v <= 0.45:
		return 85
	case v <= 0.60:
		return 65
	case v <= 0.75:
		return 45
	case v <= 0.90:
		return 25
	default:
		return 10
	}
}

func coverageBand(r *float64) float64 {
	if r == nil {
		return 0
	}
	switch v := *r; {
	case v >= 1.5:
		return 100
	case v >= 1.0:
		return 80
	case v >= 0.6:
		return 55
	case v >= 0.3:
		return 30
	default:
		return 10
	}
}

func marginBand(r *float64) float64 {
	if r == nil {
		return 0
	}
	switch v := *r; {
	case v >= 0.15:
		return 100
	case v >= 0.10:
		return 85
	case v >= 0.05:
		return 70
	case v >= 0.02:
		return 55
	case v >= 0:
		return 40
	default:
		return 10
	}
}

// scorePaymentHistory scores the on-time percentage with a penalty for deep
// delinquency. No classified payments means no component.
func scorePaymentHistory(p *PaymentHistory) (int, bool) {
	if p == nil || p.Total() == 0 {
		return 0, false
	}
	score := p.PorcentajeATiempo()
	switch {
	case p.PeorMoraDias > 60:
		score -= 20
	case p.PeorMoraDias > 30:
		score -= 10
	}
	return clampScore(score), true
}

// scorePlatformHistory scores the debtor platform-history component. A
// registered debtor with no payments yet scores 0, not "missing": absence of
// history is itself a signal inside the closed ecosystem.
func scorePlatformHistory(p *PaymentHistory, esInterno bool) (int, bool) {
	if !esInterno {
		return 0, false
	}
	if p == nil {
		return 0, true
	}
	return clampScore(p.PorcentajeATiempo()), true
}

// scoreAge saturates at ten years of incorporation.
func scoreAge(years *float64) (int, bool) {
	if years == nil || *years < 0 {
		return 0, false
	}
	return clampScore(*years * 10), true
}

var sectorScores = map[Sector]int{
	SectorAlimentos:      80,
	SectorSalud:          78,
	SectorTecnologia:     75,
	SectorServicios:      70,
	SectorComercioRetail: 68,
	SectorManufactura:    65,
	SectorEducacion:      65,
	SectorTransporte:     60,
	SectorFinanciero:     60,
	SectorAgricultura:    55,
	SectorConstruccion:   45,
	SectorTurismo:        40,
	SectorOtro:           50,
}

func scoreSector(s *Sector) (int, bool) {
	if s == nil {
		return 0, false
	}
	score, ok := sectorScores[*s]
	if !ok {
		score = sectorScores[SectorOtro]
	}
	return score, true
}

// scoreCompliance is proportional over the four flags; an unset flag counts
// as unmet. The component is missing only when all four flags are unknown.
func scoreCompliance(f *FinancialInput) (int, bool) {
	if f == nil {
		return 0, false
	}
	met, total, known := f.ComplianceFlags()
	if !known {
		return 0, false
	}
	return clampScore(float64(met) / float64(total) * 100), true
}

func scoreDocumentation(pct *float64) (int, bool) {
	if pct == nil {
		return 0, false
	}
	return clampScore(*pct), true
}

// scoreExternalBureau passes a normalized 0-100 bureau score through.
func scoreExternalBureau(score *float64) (int, bool) {
	if score == nil {
		return 0, false
	}
	return clampScore(*score), true
}

// clampScore rounds half-up to an integer and clamps to [0, 100].
func clampScore(v float64) int {
	rounded := int(math.Floor(v + 0.5))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
