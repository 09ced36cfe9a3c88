// Package sqlite stores monitored identities in a local SQLite file or, when
// credentials are configured, a remote Turso database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	goosedb "github.com/pressly/goose/v3/database"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options selects the database. Turso is tried first when both URL and token
// are set; otherwise, or if Turso is unreachable, the local file is used.
type Options struct {
	Path       string
	TursoURL   string
	TursoToken string
}

// DB wraps the database connection.
type DB struct {
	Conn     *sql.DB
	UseTurso bool
}

// Open connects and pings the database.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.TursoURL != "" && opts.TursoToken != "" {
		conn, err := sql.Open("libsql", opts.TursoURL+"?authToken="+opts.TursoToken)
		if err == nil {
			if pingErr := ping(ctx, conn); pingErr == nil {
				return &DB{Conn: conn, UseTurso: true}, nil
			}
			conn.Close()
		}
	}

	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", opts.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection serializes writers; evaluations run outside the store.
	conn.SetMaxOpenConns(1)
	if err := ping(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("SQLite database ping failed: %w", err)
	}
	return &DB{Conn: conn}, nil
}

func ping(ctx context.Context, conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.PingContext(ctx)
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	dialect := goose.DialectSQLite3
	if db.UseTurso {
		dialect = goosedb.DialectTurso
	}
	provider, err := goose.NewProvider(dialect, db.Conn, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// Info describes the connection for startup logs.
func (db *DB) Info() string {
	if db.UseTurso {
		return "Turso"
	}
	return "SQLite"
}
