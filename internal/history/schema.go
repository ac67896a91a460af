package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// ledgerVersion is stored in PRAGMA user_version. The ledger is an audit log,
// so a version change means starting a new file rather than migrating.
const ledgerVersion = 1

// ErrSchemaMismatch is returned by Open for a database written by a
// different ledger version, or one that is not a ledger at all.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the tables in an empty database and otherwise checks
// that user_version matches ledgerVersion.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	switch version {
	case ledgerVersion:
		return nil
	case 0:
		var tables int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
		).Scan(&tables); err != nil {
			return fmt.Errorf("inspect %s: %w", s.path, err)
		}
		if tables == 0 {
			return s.createSchema(ctx)
		}
		return fmt.Errorf("%w: %s holds %d unversioned table(s) and is not a run ledger", ErrSchemaMismatch, s.path, tables)
	default:
		return fmt.Errorf("%w: %s is ledger version %d, this build writes %d (move the file aside to start fresh)",
			ErrSchemaMismatch, s.path, version, ledgerVersion)
	}
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", ledgerVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
