package relationship

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kinia-ve/kinia/internal/shared"
)

type pairKey struct {
	proveedor uuid.UUID
	cliente   uuid.UUID
}

type memoryLedgerRepo struct {
	stats  map[pairKey]Stats
	events map[string]bool
}

type memoryLedgerTx struct {
	repo *memoryLedgerRepo
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		stats:  make(map[pairKey]Stats),
		events: make(map[string]bool),
	}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryLedgerTx{repo: r})
}

func (r *memoryLedgerRepo) Get(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, error) {
	stats, ok := r.stats[pairKey{proveedorID, clienteID}]
	if !ok {
		return Stats{}, ErrStatsNotFound
	}
	return stats, nil
}

func (r *memoryLedgerRepo) ListForCliente(ctx context.Context, clienteID uuid.UUID) ([]Stats, error) {
	var out []Stats
	for key, stats := range r.stats {
		if key.cliente == clienteID {
			out = append(out, stats)
		}
	}
	return out, nil
}

func (t *memoryLedgerTx) ClaimEvent(ctx context.Context, eventID string) error {
	if t.repo.events[eventID] {
		return shared.ErrEventReplay
	}
	t.repo.events[eventID] = true
	return nil
}

func (t *memoryLedgerTx) GetForUpdate(ctx context.Context, proveedorID, clienteID uuid.UUID) (Stats, bool, error) {
	stats, ok := t.repo.stats[pairKey{proveedorID, clienteID}]
	return stats, ok, nil
}

func (t *memoryLedgerTx) Save(ctx context.Context, stats Stats) (Stats, error) {
	if stats.ID == uuid.Nil {
		stats.ID = uuid.New()
	}
	t.repo.stats[pairKey{stats.ProveedorID, stats.ClienteID}] = stats
	return stats, nil
}

type recordingRescorer struct {
	enqueued []uuid.UUID
}

func (r *recordingRescorer) EnqueueDebtorRescore(ctx context.Context, clienteID uuid.UUID) error {
	r.enqueued = append(r.enqueued, clienteID)
	return nil
}

func newLedgerService(repo *memoryLedgerRepo, rescorer Rescorer) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, rescorer, nil)
}

func TestRecordInvoiceCreatesPair(t *testing.T) {
	repo := newMemoryLedgerRepo()
	rescorer := &recordingRescorer{}
	svc := newLedgerService(repo, rescorer)
	ctx := context.Background()

	proveedor, cliente := uuid.New(), uuid.New()
	emision := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	stats, err := svc.RecordInvoice(ctx, RecordInvoiceInput{
		EventID:      "evt-1",
		ProveedorID:  proveedor,
		ClienteID:    cliente,
		Monto:        1000,
		FechaEmision: emision,
	})
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalFacturas)
	require.InDelta(t, 1000, stats.SaldoPendiente, 0.001)
	require.Equal(t, []uuid.UUID{cliente}, rescorer.enqueued)
}

func TestRecordInvoiceReplayIsNoOp(t *testing.T) {
	repo := newMemoryLedgerRepo()
	rescorer := &recordingRescorer{}
	svc := newLedgerService(repo, rescorer)
	ctx := context.Background()

	proveedor, cliente := uuid.New(), uuid.New()
	in := RecordInvoiceInput{
		EventID:      "evt-dup",
		ProveedorID:  proveedor,
		ClienteID:    cliente,
		Monto:        1000,
		FechaEmision: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := svc.RecordInvoice(ctx, in)
	require.NoError(t, err)

	second, err := svc.RecordInvoice(ctx, in)
	require.NoError(t, err)

	require.Equal(t, first.TotalFacturas, second.TotalFacturas)
	require.InDelta(t, first.TotalFacturado, second.TotalFacturado, 0.001)
	// The replay does not trigger another re-score.
	require.Len(t, rescorer.enqueued, 1)
}

func TestRecordPaymentReplayIsNoOp(t *testing.T) {
	repo := newMemoryLedgerRepo()
	rescorer := &recordingRescorer{}
	svc := newLedgerService(repo, rescorer)
	ctx := context.Background()

	proveedor, cliente := uuid.New(), uuid.New()
	emision := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	vencimiento := emision.AddDate(0, 0, 30)

	_, err := svc.RecordInvoice(ctx, RecordInvoiceInput{
		EventID:     "evt-i1",
		ProveedorID: proveedor, ClienteID: cliente,
		Monto: 1000, FechaEmision: emision, FechaVencimiento: vencimiento,
	})
	require.NoError(t, err)

	in := RecordPaymentInput{
		EventID:     "evt-p-dup",
		ProveedorID: proveedor, ClienteID: cliente,
		Monto: 1000, FechaPago: vencimiento.AddDate(0, 0, 5), FechaVencimiento: vencimiento,
	}

	first, err := svc.RecordPayment(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, first.PromedioDiasPago)

	second, err := svc.RecordPayment(ctx, in)
	require.NoError(t, err)

	require.Equal(t, first.PagadasATiempo, second.PagadasATiempo)
	require.Equal(t, first.PagadasConMora, second.PagadasConMora)
	require.InDelta(t, first.TotalPagado, second.TotalPagado, 0.001)
	require.NotNil(t, second.PromedioDiasPago)
	require.InDelta(t, *first.PromedioDiasPago, *second.PromedioDiasPago, 0.001)
	// One re-score for the invoice, one for the payment; none for the replay.
	require.Len(t, rescorer.enqueued, 2)
}

func TestRecordPaymentFoldsIntoPair(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newLedgerService(repo, nil)
	ctx := context.Background()

	proveedor, cliente := uuid.New(), uuid.New()
	emision := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	vencimiento := emision.AddDate(0, 0, 30)

	_, err := svc.RecordInvoice(ctx, RecordInvoiceInput{
		EventID:     "evt-f1",
		ProveedorID: proveedor, ClienteID: cliente,
		Monto: 1000, FechaEmision: emision, FechaVencimiento: vencimiento,
	})
	require.NoError(t, err)

	stats, err := svc.RecordPayment(ctx, RecordPaymentInput{
		EventID:     "evt-p1",
		ProveedorID: proveedor, ClienteID: cliente,
		Monto: 1000, FechaPago: vencimiento.AddDate(0, 0, 10), FechaVencimiento: vencimiento,
	})
	require.NoError(t, err)
	require.Equal(t, 1, stats.PagadasConMora)
	require.Equal(t, 10, stats.PeorMoraDias)
	require.InDelta(t, 0, stats.SaldoPendiente, 0.001)
}

func TestRecordEventValidation(t *testing.T) {
	svc := newLedgerService(newMemoryLedgerRepo(), nil)
	ctx := context.Background()
	proveedor, cliente := uuid.New(), uuid.New()

	cases := []RecordInvoiceInput{
		{ProveedorID: proveedor, ClienteID: cliente, Monto: 10},            // missing event id
		{EventID: "e", ClienteID: cliente, Monto: 10},                      // missing proveedor
		{EventID: "e", ProveedorID: proveedor, ClienteID: proveedor, Monto: 10}, // self pair
		{EventID: "e", ProveedorID: proveedor, ClienteID: cliente, Monto: 0},    // non-positive
	}
	for _, in := range cases {
		_, err := svc.RecordInvoice(ctx, in)
		require.ErrorIs(t, err, ErrInvalidEvent)
	}
}

func TestAggregateForCliente(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newLedgerService(repo, nil)
	ctx := context.Background()

	cliente := uuid.New()
	emision := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, proveedor := range []uuid.UUID{uuid.New(), uuid.New()} {
		_, err := svc.RecordInvoice(ctx, RecordInvoiceInput{
			EventID:     "evt-agg-" + string(rune('a'+i)),
			ProveedorID: proveedor, ClienteID: cliente,
			Monto: 500, FechaEmision: emision,
		})
		require.NoError(t, err)
	}

	agg, err := svc.AggregateForCliente(ctx, cliente)
	require.NoError(t, err)
	require.Equal(t, cliente, agg.ClienteID)
	require.Equal(t, 2, agg.TotalFacturas)
	require.InDelta(t, 1000, agg.TotalFacturado, 0.001)
}
