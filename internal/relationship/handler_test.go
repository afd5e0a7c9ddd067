package relationship

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *memoryLedgerRepo) {
	t.Helper()
	repo := newMemoryLedgerRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(logger, repo, nil, nil))

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, repo
}

func TestRecordInvoiceEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	proveedor, cliente := uuid.New(), uuid.New()

	body, err := json.Marshal(map[string]any{
		"evento_id":             "evt-http-1",
		"empresa_proveedora_id": proveedor,
		"empresa_cliente_id":    cliente,
		"monto":                 1500.0,
		"fecha_emision":         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"fecha_vencimiento":     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/facturas", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.TotalFacturas)
	require.InDelta(t, 1500, stats.TotalFacturado, 0.001)
}

func TestRecordInvoiceEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/facturas", bytes.NewReader([]byte(`{"monto": -1}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestStatsEndpointNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.NewString()+"/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
