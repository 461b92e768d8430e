package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"account-dispenser/internal/db"
	"account-dispenser/internal/dispenser"
)

type Dialect = db.Dialect

const (
	DialectPostgres = db.Postgres
	DialectSQLite   = db.SQLite
	DialectMySQL    = db.MySQL
)

const documentID = "default"

type sqlQueries struct {
	seed   string
	lock   string
	read   string
	update string
}

func queriesFor(dialect Dialect) sqlQueries {
	switch dialect {
	case DialectPostgres:
		return sqlQueries{
			seed:   `INSERT INTO dispenser_documents (id, body) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING`,
			lock:   `SELECT body FROM dispenser_documents WHERE id = $1 FOR UPDATE`,
			read:   `SELECT body FROM dispenser_documents WHERE id = $1`,
			update: `UPDATE dispenser_documents SET body = $1::jsonb, updated_at = NOW() WHERE id = $2`,
		}
	case DialectMySQL:
		return sqlQueries{
			seed:   `INSERT IGNORE INTO dispenser_documents (id, body) VALUES (?, ?)`,
			lock:   `SELECT body FROM dispenser_documents WHERE id = ? FOR UPDATE`,
			read:   `SELECT body FROM dispenser_documents WHERE id = ?`,
			update: `UPDATE dispenser_documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		}
	default:
		// A single connection serializes sqlite writers, so no row lock is needed.
		return sqlQueries{
			seed:   `INSERT OR IGNORE INTO dispenser_documents (id, body) VALUES (?, ?)`,
			lock:   `SELECT body FROM dispenser_documents WHERE id = ?`,
			read:   `SELECT body FROM dispenser_documents WHERE id = ?`,
			update: `UPDATE dispenser_documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		}
	}
}

// SQL stores the document in one row of dispenser_documents. Update holds the row
// lock for the whole read-modify-write, so several service instances can share
// one postgres or mysql database.
type SQL struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect Dialect
	queries sqlQueries
}

func OpenSQL(ctx context.Context, dialect Dialect, dsn string, runMigrations bool) (*SQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s store requires a connection string", dialect)
	}

	database, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(10)
		database.SetMaxIdleConns(5)
		database.SetConnMaxLifetime(30 * time.Minute)
		database.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if runMigrations {
		if err := db.RunMigrations(database, dialect); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	s := &SQL{db: database, dialect: dialect, queries: queriesFor(dialect)}
	if err := s.seed(ctx, s.db); err != nil {
		_ = database.Close()
		return nil, err
	}

	return s, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQL) seed(ctx context.Context, ex execer) error {
	encoded, err := dispenser.EncodeDocument(dispenser.NewDocument())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := ex.ExecContext(ctx, s.queries.seed, documentID, string(encoded)); err != nil {
		return fmt.Errorf("seed document: %w", err)
	}
	return nil
}

func (s *SQL) View(ctx context.Context, fn func(doc *dispenser.Document) error) error {
	var body []byte
	if err := s.db.QueryRowContext(ctx, s.queries.read, documentID).Scan(&body); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read document: %w", err)
		}
		body = nil
	}
	return view(body, fn)
}

func (s *SQL) Update(ctx context.Context, fn func(doc *dispenser.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var body []byte
	if err := tx.QueryRowContext(ctx, s.queries.lock, documentID).Scan(&body); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lock document: %w", err)
		}
		if err := s.seed(ctx, tx); err != nil {
			return err
		}
		body = nil
	}

	encoded, err := apply(body, fn)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, s.queries.update, string(encoded), documentID); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "data.sqlite"
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
