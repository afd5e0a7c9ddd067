// Package factoring computes factoring terms and manages factoring requests.
// The request state machine is owned by the review workflow elsewhere; this
// package only stamps states and attaches the computed monetary fields.
package factoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/shared"
)

var (
	// ErrInvalidTerms indicates caller input that violates the term formulas.
	ErrInvalidTerms = fmt.Errorf("factoring: invalid terms: %w", shared.ErrValidation)
	// ErrRequestNotFound indicates an unknown factoring request.
	ErrRequestNotFound = fmt.Errorf("factoring: request not found: %w", shared.ErrNotFound)
)

// Estado enumerates factoring request states.
type Estado string

const (
	EstadoBorrador     Estado = "BORRADOR"
	EstadoEnviada      Estado = "ENVIADA"
	EstadoEnRevision   Estado = "EN_REVISION"
	EstadoAprobada     Estado = "APROBADA"
	EstadoRechazada    Estado = "RECHAZADA"
	EstadoDesembolsada Estado = "DESEMBOLSADA"
	EstadoEnCobranza   Estado = "EN_COBRANZA"
	EstadoLiquidada    Estado = "LIQUIDADA"
	EstadoCancelada    Estado = "CANCELADA"
)

// Terms holds the monetary fields of a factoring request. All amounts are
// rounded half-up to 2 decimal places.
type Terms struct {
	MontoFacturasTotal float64 `json:"monto_facturas_total"`
	PorcentajeAnticipo float64 `json:"porcentaje_anticipo"`
	MontoAnticipo      float64 `json:"monto_anticipo"`
	TasaDescuento      float64 `json:"tasa_descuento"`
	ComisionFija       float64 `json:"comision_fija"`
	MontoComisionTotal float64 `json:"monto_comision_total"`
	MontoADesembolsar  float64 `json:"monto_a_desembolsar"`
	MontoRetenido      float64 `json:"monto_retenido"`
}

// Solicitud is a factoring request with its computed terms and the score
// snapshot taken at assembly time.
type Solicitud struct {
	ID        uuid.UUID `json:"id"`
	EmpresaID uuid.UUID `json:"empresa_id"`
	Codigo    string    `json:"codigo_solicitud"`

	ScoreID          *uuid.UUID `json:"score_id,omitempty"`
	ScoreAlSolicitar *int       `json:"score_al_solicitar,omitempty"`

	DeudorID        *uuid.UUID `json:"deudor_id,omitempty"`
	DeudorEsInterno bool       `json:"deudor_es_interno"`

	Terms

	Estado Estado `json:"estado"`

	FechaSolicitud   time.Time  `json:"fecha_solicitud"`
	FechaAprobacion  *time.Time `json:"fecha_aprobacion,omitempty"`
	FechaDesembolso  *time.Time `json:"fecha_desembolso,omitempty"`
	FechaVencimiento *time.Time `json:"fecha_vencimiento,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
