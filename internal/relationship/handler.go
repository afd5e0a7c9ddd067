package relationship

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/platform/httpx"
)

// Handler exposes the relationship ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/facturas", h.recordInvoice)
	r.Post("/pagos", h.recordPayment)
	r.Get("/{proveedorID}/{clienteID}", h.stats)
	r.Get("/clientes/{clienteID}", h.aggregate)
}

type invoiceEventRequest struct {
	EventID          string    `json:"evento_id" validate:"required,max=100"`
	ProveedorID      uuid.UUID `json:"empresa_proveedora_id" validate:"required"`
	ClienteID        uuid.UUID `json:"empresa_cliente_id" validate:"required"`
	Monto            float64   `json:"monto" validate:"required,gt=0"`
	FechaEmision     time.Time `json:"fecha_emision" validate:"required"`
	FechaVencimiento time.Time `json:"fecha_vencimiento" validate:"required"`
}

func (h *Handler) recordInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stats, err := h.service.RecordInvoice(r.Context(), RecordInvoiceInput{
		EventID:          req.EventID,
		ProveedorID:      req.ProveedorID,
		ClienteID:        req.ClienteID,
		Monto:            req.Monto,
		FechaEmision:     req.FechaEmision,
		FechaVencimiento: req.FechaVencimiento,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

type paymentEventRequest struct {
	EventID          string    `json:"evento_id" validate:"required,max=100"`
	ProveedorID      uuid.UUID `json:"empresa_proveedora_id" validate:"required"`
	ClienteID        uuid.UUID `json:"empresa_cliente_id" validate:"required"`
	Monto            float64   `json:"monto" validate:"required,gt=0"`
	FechaPago        time.Time `json:"fecha_pago" validate:"required"`
	FechaVencimiento time.Time `json:"fecha_vencimiento" validate:"required"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	stats, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		EventID:          req.EventID,
		ProveedorID:      req.ProveedorID,
		ClienteID:        req.ClienteID,
		Monto:            req.Monto,
		FechaPago:        req.FechaPago,
		FechaVencimiento: req.FechaVencimiento,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	proveedorID, err := uuid.Parse(chi.URLParam(r, "proveedorID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "proveedor id must be a UUID")
		return
	}
	clienteID, err := uuid.Parse(chi.URLParam(r, "clienteID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "cliente id must be a UUID")
		return
	}
	stats, err := h.service.Stats(r.Context(), proveedorID, clienteID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	clienteID, err := uuid.Parse(chi.URLParam(r, "clienteID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "cliente id must be a UUID")
		return
	}
	stats, err := h.service.AggregateForCliente(r.Context(), clienteID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !httpx.Classified(err) {
		h.logger.Error("relationship request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
