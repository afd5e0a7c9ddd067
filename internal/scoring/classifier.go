package scoring

// ClassifyRisk maps a 0-100 score to a risk tier using inclusive lower
// bounds. Scores below every threshold fall through to MUY_ALTO.
func ClassifyRisk(score int, th Thresholds) RiskTier {
	switch {
	case score >= th.MuyBajo:
		return TierMuyBajo
	case score >= th.Bajo:
		return TierBajo
	case score >= th.Medio:
		return TierMedio
	case score >= th.Alto:
		return TierAlto
	default:
		return TierMuyAlto
	}
}
