package relationship

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kinia-ve/kinia/internal/observability"
	"github.com/kinia-ve/kinia/internal/shared"
)

// ErrInvalidEvent indicates an event that fails basic validation.
var ErrInvalidEvent = fmt.Errorf("relationship: invalid event: %w", shared.ErrValidation)

// Repository defines ledger data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, error)
	ListForCliente(ctx context.Context, clienteID uuid.UUID) ([]Stats, error)
}

// TxRepository defines the per-pair update: claim the event key, lock the
// pair row, save the folded statistics. All inside one transaction so a
// replayed event can never half-apply.
type TxRepository interface {
	ClaimEvent(ctx context.Context, eventID string) error
	GetForUpdate(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, bool, error)
	Save(ctx context.Context, stats Stats) (Stats, error)
}

// ErrStatsNotFound indicates an unknown pair.
var ErrStatsNotFound = fmt.Errorf("relationship: stats not found: %w", shared.ErrNotFound)

// Rescorer enqueues a debtor re-score after ledger changes. Delivery is best
// effort; the ledger write is the source of truth.
type Rescorer interface {
	EnqueueDebtorRescore(ctx context.Context, clienteID uuid.UUID) error
}

// RecordInvoiceInput describes an invoice-created event from the ledger-writing
// collaborator. EventID makes replays no-ops.
type RecordInvoiceInput struct {
	EventID          string
	ProveedorID      uuid.UUID
	ClienteID        uuid.UUID
	Monto            float64
	FechaEmision     time.Time
	FechaVencimiento time.Time
}

// RecordPaymentInput describes a payment-received event.
type RecordPaymentInput struct {
	EventID          string
	ProveedorID      uuid.UUID
	ClienteID        uuid.UUID
	Monto            float64
	FechaPago        time.Time
	FechaVencimiento time.Time
}

// Service handles ledger business logic.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	rescorer Rescorer
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService builds Service instance. rescorer and metrics may be nil.
func NewService(logger *slog.Logger, repo Repository, rescorer Rescorer, metrics *observability.Metrics) *Service {
	return &Service{logger: logger, repo: repo, rescorer: rescorer, metrics: metrics, now: time.Now}
}

// RecordInvoice folds an invoice event into the pair statistics, creating the
// pair on first contact. Replaying an already-seen event id is a no-op.
func (s *Service) RecordInvoice(ctx context.Context, in RecordInvoiceInput) (Stats, error) {
	if err := validatePair(in.EventID, in.ProveedorID, in.ClienteID, in.Monto); err != nil {
		return Stats{}, err
	}

	stats, replay, err := s.apply(ctx, in.EventID, in.ProveedorID, in.ClienteID, func(st Stats) Stats {
		return st.ApplyInvoice(in.Monto, in.FechaEmision, s.now())
	})
	if err != nil {
		return Stats{}, err
	}
	s.finish(ctx, "factura", replay, in.ClienteID)
	return stats, nil
}

// RecordPayment folds a payment event into the pair statistics. Replaying an
// already-seen event id is a no-op.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (Stats, error) {
	if err := validatePair(in.EventID, in.ProveedorID, in.ClienteID, in.Monto); err != nil {
		return Stats{}, err
	}

	stats, replay, err := s.apply(ctx, in.EventID, in.ProveedorID, in.ClienteID, func(st Stats) Stats {
		return st.ApplyPayment(in.Monto, in.FechaPago, in.FechaVencimiento, s.now())
	})
	if err != nil {
		return Stats{}, err
	}
	s.finish(ctx, "pago", replay, in.ClienteID)
	return stats, nil
}

// Stats returns the pair statistics.
func (s *Service) Stats(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, error) {
	return s.repo.Get(ctx, proveedorID, clienteID)
}

// AggregateForCliente merges every pair in which the party is the client.
func (s *Service) AggregateForCliente(ctx context.Context, clienteID uuid.UUID) (Stats, error) {
	rows, err := s.repo.ListForCliente(ctx, clienteID)
	if err != nil {
		return Stats{}, err
	}
	agg := Merge(rows)
	agg.ClienteID = clienteID
	return agg, nil
}

func (s *Service) apply(ctx context.Context, eventID string, proveedorID, clienteID uuid.UUID, fold func(Stats) Stats) (Stats, bool, error) {
	var result Stats
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.ClaimEvent(ctx, eventID); err != nil {
			return err
		}
		stats, found, err := tx.GetForUpdate(ctx, proveedorID, clienteID)
		if err != nil {
			return err
		}
		if !found {
			stats = Stats{ProveedorID: proveedorID, ClienteID: clienteID}
		}
		result, err = tx.Save(ctx, fold(stats))
		return err
	})
	if errors.Is(err, shared.ErrEventReplay) {
		// Already processed: return the current statistics unchanged.
		stats, getErr := s.repo.Get(ctx, proveedorID, clienteID)
		if getErr != nil {
			return Stats{}, true, getErr
		}
		return stats, true, nil
	}
	if err != nil {
		return Stats{}, false, err
	}
	return result, false, nil
}

func (s *Service) finish(ctx context.Context, tipo string, replay bool, clienteID uuid.UUID) {
	resultado := "aplicado"
	if replay {
		resultado = "replay"
	}
	s.metrics.LedgerEvent(tipo, resultado)
	if replay || s.rescorer == nil {
		return
	}
	if err := s.rescorer.EnqueueDebtorRescore(ctx, clienteID); err != nil {
		s.logger.Warn("debtor rescore enqueue failed",
			slog.String("cliente_id", clienteID.String()), slog.Any("error", err))
	}
}

func validatePair(eventID string, proveedorID, clienteID uuid.UUID, monto float64) error {
	switch {
	case eventID == "":
		return fmt.Errorf("%w: event id required", ErrInvalidEvent)
	case proveedorID == uuid.Nil || clienteID == uuid.Nil:
		return fmt.Errorf("%w: proveedor and cliente ids required", ErrInvalidEvent)
	case proveedorID == clienteID:
		return fmt.Errorf("%w: proveedor and cliente must differ", ErrInvalidEvent)
	case monto <= 0:
		return fmt.Errorf("%w: monto must be positive", ErrInvalidEvent)
	}
	return nil
}
