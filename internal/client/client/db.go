package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gistkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/changes"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/records"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local repositories over one database handle.
type Repositories struct {
	Metadata metadata.Repository
	Records  records.Repository
	Changes  changes.Repository
}

// NewRepositories binds every repository to db.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Metadata: metadata.NewSQLiteRepository(db),
		Records:  records.NewSQLiteRepository(db),
		Changes:  changes.NewSQLiteRepository(db),
	}
}

// RunMigrations applies the embedded goose migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the SQLite database at dsn and migrates it.
// The pool is limited to one connection: SQLite serializes writers anyway,
// and ":memory:" databases are per-connection.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
