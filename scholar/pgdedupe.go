package scholar

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDedupeLedger implements scribe.DedupeLedger against a
// Postgres table, so papers already surfaced in an earlier process
// don't resurface after a restart.
type PostgresDedupeLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresDedupeLedger connects to Postgres and ensures the ledger
// table exists.
func NewPostgresDedupeLedger(ctx context.Context, connString string) (*PostgresDedupeLedger, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	ledger := &PostgresDedupeLedger{pool: pool}
	if err := ledger.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return ledger, nil
}

func (l *PostgresDedupeLedger) init(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scholar_seen_papers (
			title_key TEXT NOT NULL,
			year      INTEGER NOT NULL,
			seen_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (title_key, year)
		)
	`)
	return err
}

// SeenAndRecord reports whether (title, year) was already recorded,
// and records it if not, atomically.
func (l *PostgresDedupeLedger) SeenAndRecord(ctx context.Context, title string, year int) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(title))
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO scholar_seen_papers (title_key, year)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, key, year)
	if err != nil {
		return false, err
	}
	// RowsAffected is 0 when the conflict clause skipped the insert,
	// i.e. this pair was already recorded.
	return tag.RowsAffected() == 0, nil
}

// Close releases the underlying connection pool.
func (l *PostgresDedupeLedger) Close() {
	l.pool.Close()
}
