package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/kinia-ve/kinia/internal/jobs"
	"github.com/kinia-ve/kinia/internal/scoring"
	"github.com/kinia-ve/kinia/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRescoreDeudor recomputes a debtor score after ledger activity.
	TaskTypeRescoreDeudor = "scoring:rescore_deudor"
	// TaskTypeCleanupEventos prunes old processed-event rows.
	TaskTypeCleanupEventos = "ledger:cleanup_eventos"
)

// RescoreDeudorPayload identifies the company whose debtor score is stale.
type RescoreDeudorPayload struct {
	EmpresaID uuid.UUID `json:"empresa_id"`
}

// NewRescoreDeudorTask constructs an Asynq task.
func NewRescoreDeudorTask(payload RescoreDeudorPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRescoreDeudor, data), nil
}

// NewRescoreDeudorHandler builds the handler that recomputes and activates a
// debtor score from platform data. Missing companies skip retry; a missing
// active configuration is transient and retried.
func NewRescoreDeudorHandler(svc *scoring.Service, ds scoring.DataSource, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RescoreDeudorPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.EmpresaID == uuid.Nil {
			return asynq.SkipRetry
		}

		tracker := metrics.Track("rescore_deudor")
		in, err := ds.DebtorInput(ctx, payload.EmpresaID)
		if err != nil {
			if errors.Is(err, scoring.ErrEmpresaNotFound) {
				logger.Warn("rescore skipped, empresa missing",
					slog.String("empresa_id", payload.EmpresaID.String()))
				_ = tracker.End(nil)
				return asynq.SkipRetry
			}
			return tracker.End(err)
		}

		score, err := svc.ScoreDebtor(ctx, in)
		if err != nil {
			return tracker.End(err)
		}
		metrics.AddRescore(string(score.NivelRiesgo))
		logger.Info("debtor rescored",
			slog.String("empresa_id", payload.EmpresaID.String()),
			slog.String("nivel_riesgo", string(score.NivelRiesgo)),
		)
		return tracker.End(nil)
	}
}

// CleanupEventosPayload bounds the retention window for processed events.
type CleanupEventosPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewCleanupEventosTask constructs the periodic cleanup task.
func NewCleanupEventosTask(payload CleanupEventosPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCleanupEventos, data), nil
}

// NewCleanupEventosHandler prunes eventos_procesados beyond the retention
// window.
func NewCleanupEventosHandler(db shared.Execer, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CleanupEventosPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		days := payload.RetentionDays
		if days <= 0 {
			days = 90
		}
		tracker := metrics.Track("cleanup_eventos")
		retention := time.Duration(days) * 24 * time.Hour
		removed, err := shared.CleanupEvents(ctx, db, retention)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("eventos cleanup", slog.Int64("removed", removed), slog.Int("retention_days", days))
		return tracker.End(nil)
	}
}
