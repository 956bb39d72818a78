package store

import (
	"database/sql"
	"fmt"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// migrate applies every migration whose version exceeds the stored
// schema_version, in order, inside a single transaction per version. It
// never downgrades (spec.md §3 "it never downgrades").
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return kdexerr.Wrap(kdexerr.MigrationFailed, "create schema_version table", err)
	}

	current, err := readVersion(db)
	if err != nil {
		return kdexerr.Wrap(kdexerr.MigrationFailed, "read schema version", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return kdexerr.Wrap(kdexerr.MigrationFailed, fmt.Sprintf("apply migration %d", m.version), err)
		}
	}
	return nil
}

func readVersion(db *sql.DB) (int, error) {
	var version int
	row := db.QueryRow(`SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`)
	err := row.Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
