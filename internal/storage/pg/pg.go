package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Registers the PostgreSQL driver

	"github.com/Camillus83/ImageUploadAPI/internal/config"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
)

// Querier is satisfied by both *sql.DB (single operations on the pool) and
// *sql.Tx (operations within a transaction). Core query logic is written
// against this interface so it composes in both contexts.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type Storage struct {
	db *sql.DB
}

func New(cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to db")
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to db")
	return &Storage{db}, nil
}

func Connect(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Private.Pg.Host, cfg.Private.Pg.Port,
		cfg.Private.Pg.User, cfg.Private.Pg.Password,
		cfg.Private.Pg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping verifies database connectivity, used by the readiness probe.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx executes fn inside a transaction. The deferred Rollback is a no-op
// once the transaction has been committed.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
