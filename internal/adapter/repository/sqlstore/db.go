package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps the database connection
type DB struct {
	*sql.DB
	driver string
}

// NewDB creates a new database connection.
// For sqlite dsn is a file path; for postgres it is a connection string such as
// "host=localhost port=5432 user=postgres password=postgres dbname=finai sslmode=disable".
func NewDB(driver, dsn string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err == nil {
			// one writer at a time avoids SQLITE_BUSY
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Migrate applies the embedded schema migrations
func (db *DB) Migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var target database.Driver
	switch db.driver {
	case DriverSQLite:
		target, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	case DriverPostgres:
		target, err = postgres.WithInstance(db.DB, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create %s migration driver: %w", db.driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.driver, target)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Debug("No new database migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.L.Info("Database migrations applied successfully", "driver", db.driver)
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// rebind turns ? placeholders into $n for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
