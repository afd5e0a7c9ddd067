package scoring

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/platform/httpx"
	"github.com/kinia-ve/kinia/internal/shared"
)

// Handler exposes the scoring endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers scoring routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/configs", h.createConfig)
	r.Post("/configs/{id}/activate", h.activateConfig)
	r.Get("/configs/active", h.activeConfig)

	r.Post("/empresas/{id}/scores/proveedor", h.scoreSupplier)
	r.Post("/empresas/{id}/scores/deudor", h.scoreDebtor)
	r.Get("/empresas/{id}/scores/{alcance}", h.currentScore)
	r.Get("/empresas/{id}/scores", h.scoreHistory)
}

func (h *Handler) createConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := httpx.DecodeJSON(r, &cfg); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	created, err := h.service.CreateConfig(r.Context(), cfg)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) activateConfig(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "config id must be a UUID")
		return
	}
	cfg, err := h.service.ActivateConfig(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) activeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.ActiveConfig(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

type adjustmentRequest struct {
	Delta  int    `json:"delta" validate:"gte=-100,lte=100"`
	Motivo string `json:"motivo" validate:"required,max=500"`
}

type supplierScoreRequest struct {
	Financiero       *FinancialInput    `json:"financiero"`
	HistorialPagos   *PaymentHistory    `json:"historial_pagos"`
	Sector           *Sector            `json:"sector"`
	AntiguedadAnios  *float64           `json:"antiguedad_anios" validate:"omitempty,gte=0"`
	DocumentacionPct *float64           `json:"documentacion_pct" validate:"omitempty,gte=0,lte=100"`
	Ajuste           *adjustmentRequest `json:"ajuste"`
}

func (h *Handler) scoreSupplier(w http.ResponseWriter, r *http.Request) {
	empresaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "empresa id must be a UUID")
		return
	}
	var req supplierScoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ajuste, err := h.resolveAdjustment(r, req.Ajuste)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	score, err := h.service.ScoreSupplier(r.Context(), SupplierInput{
		EmpresaID:        empresaID,
		Financiero:       req.Financiero,
		HistorialPagos:   req.HistorialPagos,
		Sector:           req.Sector,
		AntiguedadAnios:  req.AntiguedadAnios,
		DocumentacionPct: req.DocumentacionPct,
		Ajuste:           ajuste,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, score)
}

type debtorScoreRequest struct {
	EsInterno           bool               `json:"es_interno"`
	HistorialPlataforma *PaymentHistory    `json:"historial_plataforma"`
	Financiero          *FinancialInput    `json:"financiero"`
	AntiguedadAnios     *float64           `json:"antiguedad_anios" validate:"omitempty,gte=0"`
	BuroExterno         *float64           `json:"buro_externo" validate:"omitempty,gte=0,lte=100"`
	Ajuste              *adjustmentRequest `json:"ajuste"`
}

func (h *Handler) scoreDebtor(w http.ResponseWriter, r *http.Request) {
	empresaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "empresa id must be a UUID")
		return
	}
	var req debtorScoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ajuste, err := h.resolveAdjustment(r, req.Ajuste)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	score, err := h.service.ScoreDebtor(r.Context(), DebtorInput{
		EmpresaID:           empresaID,
		EsInterno:           req.EsInterno,
		HistorialPlataforma: req.HistorialPlataforma,
		Financiero:          req.Financiero,
		AntiguedadAnios:     req.AntiguedadAnios,
		BuroExterno:         req.BuroExterno,
		Ajuste:              ajuste,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, score)
}

// resolveAdjustment attributes a manual adjustment to the acting user
// supplied by the identity collaborator.
func (h *Handler) resolveAdjustment(r *http.Request, req *adjustmentRequest) (*ManualAdjustment, error) {
	if req == nil {
		return nil, nil
	}
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		return nil, errors.New("manual adjustment requires the " + shared.ActorHeader + " header")
	}
	return &ManualAdjustment{Delta: req.Delta, Motivo: req.Motivo, Actor: actor}, nil
}

func (h *Handler) currentScore(w http.ResponseWriter, r *http.Request) {
	empresaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "empresa id must be a UUID")
		return
	}
	alcance := ScoreScope(chi.URLParam(r, "alcance"))
	if alcance != ScopeProveedor && alcance != ScopeDeudor {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Scope", "alcance must be PROVEEDOR or DEUDOR")
		return
	}
	score, err := h.service.CurrentScore(r.Context(), empresaID, alcance)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, score)
}

func (h *Handler) scoreHistory(w http.ResponseWriter, r *http.Request) {
	empresaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "empresa id must be a UUID")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scores, err := h.service.ScoreHistory(r.Context(), empresaID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scores)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !httpx.Classified(err) {
		h.logger.Error("scoring request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
