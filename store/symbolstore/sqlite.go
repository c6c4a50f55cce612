// Package symbolstore implements a durable side-index for scribe's
// SymbolIndex so repeat runs over the same file set skip re-parsing.
// Zero CGO required.
package symbolstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Symbol is one definition or usage site.
type Symbol struct {
	Name string
	Path string
	Line int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store persists symbol definitions and usages keyed by the CAS key of
// the file they were extracted from, so a file whose content and parser
// version are unchanged never needs re-parsing across runs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) a SQLite file at dbPath as the symbol side-index.
func New(dbPath string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("symbolstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Init creates the schema.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS symbols (
		cas_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		line INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("symbolstore: create table: %w", err)
	}
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_symbols_key ON symbols(cas_key)`)
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`)
	s.logger.Debug("symbolstore: init complete", "duration", time.Since(start))
	return nil
}

// Has reports whether casKey has already been indexed.
func (s *Store) Has(ctx context.Context, casKey string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols WHERE cas_key = ? LIMIT 1`, casKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("symbolstore: has: %w", err)
	}
	return n > 0, nil
}

// Put replaces all symbols recorded for casKey with defs and uses.
func (s *Store) Put(ctx context.Context, casKey string, defs, uses []Symbol) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("symbolstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE cas_key = ?`, casKey); err != nil {
		return fmt.Errorf("symbolstore: clear: %w", err)
	}
	insert := func(kind string, syms []Symbol) error {
		for _, sym := range syms {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO symbols (cas_key, kind, name, path, line) VALUES (?, ?, ?, ?, ?)`,
				casKey, kind, sym.Name, sym.Path, sym.Line); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert("def", defs); err != nil {
		return fmt.Errorf("symbolstore: insert defs: %w", err)
	}
	if err := insert("use", uses); err != nil {
		return fmt.Errorf("symbolstore: insert uses: %w", err)
	}
	return tx.Commit()
}

// Get returns the defs and uses previously stored for casKey.
func (s *Store) Get(ctx context.Context, casKey string) (defs, uses []Symbol, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, name, path, line FROM symbols WHERE cas_key = ?`, casKey)
	if err != nil {
		return nil, nil, fmt.Errorf("symbolstore: get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var sym Symbol
		if err := rows.Scan(&kind, &sym.Name, &sym.Path, &sym.Line); err != nil {
			return nil, nil, fmt.Errorf("symbolstore: scan: %w", err)
		}
		if kind == "def" {
			defs = append(defs, sym)
		} else {
			uses = append(uses, sym)
		}
	}
	return defs, uses, rows.Err()
}

// FindByName returns every def or use recorded under name across all
// indexed files, independent of cas_key.
func (s *Store) FindByName(ctx context.Context, kind, name string) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, line FROM symbols WHERE kind = ? AND name = ?`, kind, name)
	if err != nil {
		return nil, fmt.Errorf("symbolstore: find by name: %w", err)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var sym Symbol
		sym.Name = name
		if err := rows.Scan(&sym.Path, &sym.Line); err != nil {
			return nil, fmt.Errorf("symbolstore: scan: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
