package scoring

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var spanish = message.NewPrinter(language.Spanish)

var componentLabels = map[string]string{
	ComponentFinanciero:          "situación financiera",
	ComponentHistorialPagos:      "historial de pagos",
	ComponentAntiguedad:          "antigüedad de la empresa",
	ComponentSector:              "sector económico",
	ComponentCumplimiento:        "cumplimiento tributario",
	ComponentDocumentacion:       "documentación verificada",
	ComponentHistorialPlataforma: "historial de pagos en la plataforma",
	ComponentBuroExterno:         "referencia de buró externo",
}

var tierLabels = map[RiskTier]string{
	TierMuyBajo: "muy bajo",
	TierBajo:    "bajo",
	TierMedio:   "medio",
	TierAlto:    "alto",
	TierMuyAlto: "muy alto",
}

// explain fills the human-readable explanation strings on a computed score.
func explain(s *Score) {
	s.FactoresPositivos = []string{}
	s.FactoresNegativos = []string{}
	s.Recomendaciones = []string{}

	if s.Puntaje == nil {
		s.ExplicacionCorta = "Sin datos disponibles para calcular el score; se asigna el nivel de riesgo más conservador."
		s.Recomendaciones = append(s.Recomendaciones,
			"Cargue datos financieros y documentación para obtener un score calculado.")
		return
	}

	for _, c := range s.Componentes {
		label := componentLabels[c.Nombre]
		if label == "" {
			label = c.Nombre
		}
		switch {
		case !c.Disponible:
			s.Recomendaciones = append(s.Recomendaciones,
				spanish.Sprintf("Proporcione datos de %s para mejorar la precisión del score.", label))
		case c.Puntaje >= 70:
			s.FactoresPositivos = append(s.FactoresPositivos,
				spanish.Sprintf("Buen desempeño en %s (%d/100).", label, c.Puntaje))
		case c.Puntaje <= 40:
			s.FactoresNegativos = append(s.FactoresNegativos,
				spanish.Sprintf("Desempeño débil en %s (%d/100).", label, c.Puntaje))
		}
	}

	if s.AjusteManual != 0 {
		s.FactoresNegativos = append(s.FactoresNegativos,
			spanish.Sprintf("Ajuste manual de %d puntos aplicado.", s.AjusteManual))
	}

	if s.NivelRiesgo == TierAlto || s.NivelRiesgo == TierMuyAlto {
		s.Recomendaciones = append(s.Recomendaciones,
			"Considere mejorar el comportamiento de pago y la posición financiera antes de solicitar montos mayores.")
	}

	s.ExplicacionCorta = spanish.Sprintf("Score %d/100, riesgo %s.", *s.Puntaje, tierLabels[s.NivelRiesgo])
	if s.LimiteFactoringSugerido != nil {
		s.ExplicacionCorta += spanish.Sprintf(" Límite de factoring sugerido: %.2f.", *s.LimiteFactoringSugerido)
	}
}
