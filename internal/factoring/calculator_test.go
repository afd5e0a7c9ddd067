package factoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTerms(t *testing.T) {
	terms, err := ComputeTerms(1000, 80, 5, 10)
	require.NoError(t, err)

	require.InDelta(t, 1000, terms.MontoFacturasTotal, 0.001)
	require.InDelta(t, 80, terms.PorcentajeAnticipo, 0.001)
	require.InDelta(t, 800, terms.MontoAnticipo, 0.001)
	require.InDelta(t, 5, terms.TasaDescuento, 0.001)
	require.InDelta(t, 10, terms.ComisionFija, 0.001)
	require.InDelta(t, 60, terms.MontoComisionTotal, 0.001)
	require.InDelta(t, 740, terms.MontoADesembolsar, 0.001)
	require.InDelta(t, 200, terms.MontoRetenido, 0.001)
}

func TestComputeTermsRoundsHalfUp(t *testing.T) {
	// 333.33 × 85% = 283.3305 → 283.33; commission 333.33 × 7.5% = 25.0 (i.e.
	// 24.99975 → 25.00).
	terms, err := ComputeTerms(333.33, 85, 7.5, 0)
	require.NoError(t, err)
	require.InDelta(t, 283.33, terms.MontoAnticipo, 0.0001)
	require.InDelta(t, 25.00, terms.MontoComisionTotal, 0.0001)
	require.InDelta(t, 50.00, terms.MontoRetenido, 0.0001)
}

func TestComputeTermsFullAdvance(t *testing.T) {
	terms, err := ComputeTerms(500, 100, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 500, terms.MontoAnticipo, 0.001)
	require.InDelta(t, 500, terms.MontoADesembolsar, 0.001)
	require.InDelta(t, 0, terms.MontoRetenido, 0.001)
}

func TestComputeTermsInvalidInput(t *testing.T) {
	cases := []struct {
		name                    string
		total, pct, rate, fija float64
	}{
		{"zero total", 0, 80, 5, 0},
		{"negative total", -100, 80, 5, 0},
		{"zero advance pct", 1000, 0, 5, 0},
		{"advance pct over 100", 1000, 101, 5, 0},
		{"negative rate", 1000, 80, -1, 0},
		{"negative fixed fee", 1000, 80, 5, -10},
		{"commission exceeds advance", 1000, 10, 50, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTerms(tc.total, tc.pct, tc.rate, tc.fija)
			require.ErrorIs(t, err, ErrInvalidTerms)
		})
	}
}
