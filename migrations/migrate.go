package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// NewProvider returns a goose provider for the embedded migrations of a dialect
func NewProvider(db *sql.DB, dialect goose.Dialect) (*goose.Provider, error) {
	dir, err := dirFor(dialect)
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(FS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s migrations: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func dirFor(dialect goose.Dialect) (string, error) {
	switch dialect {
	case goose.DialectClickHouse:
		return ClickHouseDir, nil
	case goose.DialectSQLite3:
		return SQLiteDir, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}
