package factoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/platform/httpx"
)

// Handler exposes the factoring endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers factoring routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/solicitudes", h.assemble)
	r.Get("/solicitudes/{id}", h.get)
	r.Post("/solicitudes/{id}/aprobar", h.aprobar)
	r.Post("/solicitudes/{id}/desembolsar", h.desembolsar)
	r.Get("/empresas/{id}/solicitudes", h.listForEmpresa)
	r.Post("/terminos/preview", h.preview)
}

type assembleRequest struct {
	EmpresaID        uuid.UUID  `json:"empresa_id" validate:"required"`
	DeudorID         *uuid.UUID `json:"deudor_id"`
	DeudorEsInterno  bool       `json:"deudor_es_interno"`
	MontoTotal       float64    `json:"monto_facturas_total" validate:"required,gt=0"`
	ComisionFija     float64    `json:"comision_fija" validate:"gte=0"`
	FechaVencimiento *time.Time `json:"fecha_vencimiento"`
}

func (h *Handler) assemble(w http.ResponseWriter, r *http.Request) {
	var req assembleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	solicitud, err := h.service.Assemble(r.Context(), AssembleInput{
		EmpresaID:        req.EmpresaID,
		DeudorID:         req.DeudorID,
		DeudorEsInterno:  req.DeudorEsInterno,
		MontoTotal:       req.MontoTotal,
		ComisionFija:     req.ComisionFija,
		FechaVencimiento: req.FechaVencimiento,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, solicitud)
}

type previewRequest struct {
	MontoTotal         float64 `json:"monto_facturas_total" validate:"required,gt=0"`
	PorcentajeAnticipo float64 `json:"porcentaje_anticipo" validate:"required,gt=0,lte=100"`
	TasaDescuento      float64 `json:"tasa_descuento" validate:"gte=0"`
	ComisionFija       float64 `json:"comision_fija" validate:"gte=0"`
}

// preview computes terms without persisting anything, for quoting screens.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	terms, err := ComputeTerms(req.MontoTotal, req.PorcentajeAnticipo, req.TasaDescuento, req.ComisionFija)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, terms)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "solicitud id must be a UUID")
		return
	}
	solicitud, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, solicitud)
}

func (h *Handler) listForEmpresa(w http.ResponseWriter, r *http.Request) {
	empresaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "empresa id must be a UUID")
		return
	}
	solicitudes, err := h.service.ListForEmpresa(r.Context(), empresaID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, solicitudes)
}

func (h *Handler) aprobar(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Aprobar)
}

func (h *Handler) desembolsar(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Desembolsar)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (Solicitud, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "solicitud id must be a UUID")
		return
	}
	solicitud, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, solicitud)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !httpx.Classified(err) {
		h.logger.Error("factoring request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
