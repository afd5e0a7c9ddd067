// Package relationship maintains the commercial relationship ledger: running
// payment-behavior statistics per (supplier, client) pair, aggregated
// incrementally from invoice and payment events.
package relationship

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Stats holds the running statistics of one directional supplier→client pair.
type Stats struct {
	ID          uuid.UUID `json:"id"`
	ProveedorID uuid.UUID `json:"empresa_proveedora_id"`
	ClienteID   uuid.UUID `json:"empresa_cliente_id"`

	TotalFacturas  int     `json:"total_facturas"`
	TotalFacturado float64 `json:"total_facturado"`
	TotalPagado    float64 `json:"total_pagado"`
	SaldoPendiente float64 `json:"saldo_pendiente"`

	PromedioDiasPago *float64 `json:"promedio_dias_pago"`
	PagadasATiempo   int      `json:"facturas_pagadas_a_tiempo"`
	PagadasConMora   int      `json:"facturas_pagadas_con_mora"`
	PeorMoraDias     int      `json:"peor_mora_dias"`

	PrimeraTransaccion *time.Time `json:"primera_transaccion"`
	UltimaTransaccion  *time.Time `json:"ultima_transaccion"`

	ScoreRelacion *int `json:"score_relacion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PorcentajePagoATiempo returns the on-time payment percentage, 0 with no history.
func (s Stats) PorcentajePagoATiempo() float64 {
	total := s.PagadasATiempo + s.PagadasConMora
	if total == 0 {
		return 0
	}
	return float64(s.PagadasATiempo) / float64(total) * 100
}

// ApplyInvoice folds an invoice-created event into the running statistics.
func (s Stats) ApplyInvoice(monto float64, fechaEmision time.Time, now time.Time) Stats {
	s.TotalFacturas++
	s.TotalFacturado += monto
	s.SaldoPendiente += monto
	s.touch(fechaEmision)
	s.refreshScore(now)
	return s
}

// ApplyPayment folds a payment-received event into the running statistics.
// The payment is classified against the invoice due date; the running mean
// days-to-pay is updated incrementally, never recomputed from scratch.
func (s Stats) ApplyPayment(monto float64, fechaPago, fechaVencimiento time.Time, now time.Time) Stats {
	s.TotalPagado += monto
	s.SaldoPendiente -= monto
	if s.SaldoPendiente < 0 {
		s.SaldoPendiente = 0
	}

	dias := daysBetween(fechaVencimiento, fechaPago)
	if fechaPago.After(fechaVencimiento) {
		// A partial day past the due timestamp counts as one day of mora.
		if dias < 1 {
			dias = 1
		}
		s.PagadasConMora++
		if dias > s.PeorMoraDias {
			s.PeorMoraDias = dias
		}
	} else {
		s.PagadasATiempo++
	}

	n := s.PagadasATiempo + s.PagadasConMora
	prev := 0.0
	if s.PromedioDiasPago != nil {
		prev = *s.PromedioDiasPago
	}
	mean := prev + (float64(dias)-prev)/float64(n)
	s.PromedioDiasPago = &mean

	s.touch(fechaPago)
	s.refreshScore(now)
	return s
}

func (s *Stats) touch(at time.Time) {
	if s.PrimeraTransaccion == nil || at.Before(*s.PrimeraTransaccion) {
		t := at
		s.PrimeraTransaccion = &t
	}
	if s.UltimaTransaccion == nil || at.After(*s.UltimaTransaccion) {
		t := at
		s.UltimaTransaccion = &t
	}
}

func (s *Stats) refreshScore(now time.Time) {
	score := s.RelationshipScore(now)
	s.ScoreRelacion = &score
}

// RelationshipScore derives the 0-100 relationship score: on-time percentage
// (70%) blended with transaction volume (15%) and recency (15%).
func (s Stats) RelationshipScore(now time.Time) int {
	pago := s.PorcentajePagoATiempo()

	volumen := math.Min(float64(s.TotalFacturas), 20) / 20 * 100

	recencia := 10.0
	if s.UltimaTransaccion != nil {
		switch dias := daysBetween(*s.UltimaTransaccion, now); {
		case dias <= 90:
			recencia = 100
		case dias <= 180:
			recencia = 60
		case dias <= 365:
			recencia = 30
		}
	}

	score := int(math.Floor(pago*0.70 + volumen*0.15 + recencia*0.15 + 0.5))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// daysBetween returns whole days from a to b, negative when b precedes a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Merge combines pair statistics into an aggregate view of one party across
// all of its relationships (used for the debtor-side platform history).
func Merge(rows []Stats) Stats {
	var agg Stats
	var weightedDias float64
	var pagos int
	for _, r := range rows {
		agg.TotalFacturas += r.TotalFacturas
		agg.TotalFacturado += r.TotalFacturado
		agg.TotalPagado += r.TotalPagado
		agg.SaldoPendiente += r.SaldoPendiente
		agg.PagadasATiempo += r.PagadasATiempo
		agg.PagadasConMora += r.PagadasConMora
		if r.PeorMoraDias > agg.PeorMoraDias {
			agg.PeorMoraDias = r.PeorMoraDias
		}
		if n := r.PagadasATiempo + r.PagadasConMora; n > 0 && r.PromedioDiasPago != nil {
			weightedDias += *r.PromedioDiasPago * float64(n)
			pagos += n
		}
		if r.PrimeraTransaccion != nil {
			agg.touch(*r.PrimeraTransaccion)
		}
		if r.UltimaTransaccion != nil {
			agg.touch(*r.UltimaTransaccion)
		}
	}
	if pagos > 0 {
		mean := weightedDias / float64(pagos)
		agg.PromedioDiasPago = &mean
	}
	return agg
}
