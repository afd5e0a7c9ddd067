package factoring

import (
	"fmt"
	"math"
)

// ComputeTerms applies the factoring formulas:
//
//	anticipo      = total × pct/100
//	comisión      = total × tasa/100 + fija
//	desembolso    = anticipo − comisión
//	retenido      = total − anticipo
//
// Each amount is rounded half-up to 2 decimals. The calculator is
// debtor-type-agnostic: any internal-debtor rate discount is applied by the
// caller before this point.
func ComputeTerms(total, porcentajeAnticipo, tasaDescuento, comisionFija float64) (Terms, error) {
	if total <= 0 {
		return Terms{}, fmt.Errorf("%w: monto total must be positive", ErrInvalidTerms)
	}
	if porcentajeAnticipo <= 0 || porcentajeAnticipo > 100 {
		return Terms{}, fmt.Errorf("%w: porcentaje anticipo must be in (0, 100]", ErrInvalidTerms)
	}
	if tasaDescuento < 0 {
		return Terms{}, fmt.Errorf("%w: tasa descuento must not be negative", ErrInvalidTerms)
	}
	if comisionFija < 0 {
		return Terms{}, fmt.Errorf("%w: comision fija must not be negative", ErrInvalidTerms)
	}

	anticipo := round2(total * porcentajeAnticipo / 100)
	comision := round2(total*tasaDescuento/100 + comisionFija)
	desembolso := round2(anticipo - comision)
	retenido := round2(total - anticipo)

	if desembolso < 0 {
		return Terms{}, fmt.Errorf("%w: comision exceeds anticipo", ErrInvalidTerms)
	}

	return Terms{
		MontoFacturasTotal: round2(total),
		PorcentajeAnticipo: porcentajeAnticipo,
		MontoAnticipo:      anticipo,
		TasaDescuento:      tasaDescuento,
		ComisionFija:       round2(comisionFija),
		MontoComisionTotal: comision,
		MontoADesembolsar:  desembolso,
		MontoRetenido:      retenido,
	}, nil
}

// round2 rounds half-up to 2 decimal places. Inputs here are non-negative.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
