package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrEventReplay indicates an event identifier that was already processed.
var ErrEventReplay = errors.New("event already processed")

// Execer is satisfied by pgxpool.Pool and pgx.Tx so event keys can be
// claimed inside the same transaction as the state they guard.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ClaimEvent records an event identifier for a module. A replayed identifier
// returns ErrEventReplay, which callers treat as a no-op.
func ClaimEvent(ctx context.Context, db Execer, eventID, module string) error {
	if eventID == "" {
		return errors.New("event id required")
	}
	if module == "" {
		return errors.New("event module required")
	}
	_, err := db.Exec(ctx, `INSERT INTO eventos_procesados (evento_id, modulo, created_at) VALUES ($1, $2, $3)`, eventID, module, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEventReplay
		}
		return err
	}
	return nil
}

// CleanupEvents removes event keys older than retention and reports how many
// rows were pruned.
func CleanupEvents(ctx context.Context, db Execer, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := db.Exec(ctx, `DELETE FROM eventos_procesados WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
