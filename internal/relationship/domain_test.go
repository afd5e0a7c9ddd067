package relationship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestApplyInvoice(t *testing.T) {
	now := day(0)

	s := Stats{}.ApplyInvoice(1000, day(0), now)
	s = s.ApplyInvoice(500, day(5), now)

	require.Equal(t, 2, s.TotalFacturas)
	require.InDelta(t, 1500, s.TotalFacturado, 0.001)
	require.InDelta(t, 1500, s.SaldoPendiente, 0.001)
	require.Equal(t, day(0), *s.PrimeraTransaccion)
	require.Equal(t, day(5), *s.UltimaTransaccion)
	require.NotNil(t, s.ScoreRelacion)
}

func TestApplyPaymentOnTime(t *testing.T) {
	now := day(40)

	s := Stats{}.ApplyInvoice(1000, day(0), now)
	// Paid two days before due.
	s = s.ApplyPayment(1000, day(28), day(30), now)

	require.Equal(t, 1, s.PagadasATiempo)
	require.Equal(t, 0, s.PagadasConMora)
	require.Equal(t, 0, s.PeorMoraDias)
	require.InDelta(t, 0, s.SaldoPendiente, 0.001)
	require.InDelta(t, 1000, s.TotalPagado, 0.001)
	require.NotNil(t, s.PromedioDiasPago)
	require.InDelta(t, -2, *s.PromedioDiasPago, 0.001)
}

func TestApplyPaymentPartialDayLateIsMora(t *testing.T) {
	now := day(40)
	vencimiento := day(30)

	s := Stats{}.ApplyInvoice(1000, day(0), now)
	// Paid twelve hours past the due timestamp.
	s = s.ApplyPayment(1000, vencimiento.Add(12*time.Hour), vencimiento, now)

	require.Equal(t, 0, s.PagadasATiempo)
	require.Equal(t, 1, s.PagadasConMora)
	require.Equal(t, 1, s.PeorMoraDias)

	// Exactly on the due timestamp is still on time.
	s = s.ApplyPayment(500, vencimiento, vencimiento, now)
	require.Equal(t, 1, s.PagadasATiempo)
	require.Equal(t, 1, s.PagadasConMora)
}

func TestApplyPaymentIncrementalMean(t *testing.T) {
	now := day(100)

	s := Stats{}
	// Three payments: 10, 20 and 0 days after due.
	s = s.ApplyPayment(100, day(40), day(30), now)
	s = s.ApplyPayment(100, day(50), day(30), now)
	s = s.ApplyPayment(100, day(30), day(30), now)

	require.Equal(t, 1, s.PagadasATiempo)
	require.Equal(t, 2, s.PagadasConMora)
	require.Equal(t, 20, s.PeorMoraDias)
	require.InDelta(t, 10.0, *s.PromedioDiasPago, 0.001)
}

func TestApplyPaymentSaldoFloorsAtZero(t *testing.T) {
	now := day(10)

	s := Stats{}.ApplyInvoice(100, day(0), now)
	s = s.ApplyPayment(150, day(5), day(30), now)

	require.InDelta(t, 0, s.SaldoPendiente, 0.001)
}

func TestRelationshipScoreBlend(t *testing.T) {
	now := day(0)
	ultima := day(-10)

	s := Stats{
		TotalFacturas:     20, // volume saturated
		PagadasATiempo:    10,
		PagadasConMora:    0,
		UltimaTransaccion: &ultima,
	}
	// 100×0.70 + 100×0.15 + 100×0.15 = 100
	require.Equal(t, 100, s.RelationshipScore(now))

	stale := day(-400)
	s.UltimaTransaccion = &stale
	// recency drops to the floor band: 70 + 15 + 10×0.15 = 86.5 → 87
	require.Equal(t, 87, s.RelationshipScore(now))
}

func TestMergeAggregatesAcrossPairs(t *testing.T) {
	p1 := day(-30)
	u1 := day(-5)
	m1 := 5.0
	p2 := day(-60)
	u2 := day(-1)
	m2 := 15.0

	rows := []Stats{
		{
			TotalFacturas: 4, TotalFacturado: 400, TotalPagado: 300, SaldoPendiente: 100,
			PagadasATiempo: 2, PagadasConMora: 1, PeorMoraDias: 12,
			PromedioDiasPago: &m1, PrimeraTransaccion: &p1, UltimaTransaccion: &u1,
		},
		{
			TotalFacturas: 6, TotalFacturado: 600, TotalPagado: 600,
			PagadasATiempo: 1, PagadasConMora: 1, PeorMoraDias: 40,
			PromedioDiasPago: &m2, PrimeraTransaccion: &p2, UltimaTransaccion: &u2,
		},
	}

	agg := Merge(rows)
	require.Equal(t, 10, agg.TotalFacturas)
	require.InDelta(t, 1000, agg.TotalFacturado, 0.001)
	require.InDelta(t, 100, agg.SaldoPendiente, 0.001)
	require.Equal(t, 3, agg.PagadasATiempo)
	require.Equal(t, 2, agg.PagadasConMora)
	require.Equal(t, 40, agg.PeorMoraDias)
	// Weighted mean: (5×3 + 15×2) / 5 = 9
	require.InDelta(t, 9.0, *agg.PromedioDiasPago, 0.001)
	require.Equal(t, p2, *agg.PrimeraTransaccion)
	require.Equal(t, u2, *agg.UltimaTransaccion)
}

func TestMergeEmpty(t *testing.T) {
	agg := Merge(nil)
	require.Equal(t, 0, agg.TotalFacturas)
	require.Nil(t, agg.PromedioDiasPago)
}
