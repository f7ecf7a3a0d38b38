package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bloommarbella_api/config"
	"bloommarbella_api/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	maxRetries     = 10
	retryDelay     = 5 * time.Second
	dbMaxOpenConns = 20
	dbMaxIdleConns = 5
	dbConnLifetime = 30 * time.Minute
	pingTimeout    = 5 * time.Second
)

type PostgresDatabase struct {
	config.DbConfig
	db  *sqlx.DB
	mu  sync.Mutex // Для защиты доступа к db
	log logger.Logger

	retryDelay time.Duration
}

func NewPgConnector(dbConfig config.DbConfig, log logger.Logger) *PostgresDatabase {
	return &PostgresDatabase{DbConfig: dbConfig, log: log, retryDelay: retryDelay}
}

// Connect открывает пул, повторяя попытки до maxRetries или отмены ctx.
// Повторный вызов возвращает уже открытый пул.
func (pg *PostgresDatabase) Connect(ctx context.Context) (*sqlx.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err := pg.open(ctx)
		if err == nil {
			pg.log.Log("Successfully connected to Postgres")
			pg.db = db
			return db, nil
		}
		lastErr = err
		pg.log.Warn("Postgres is not reachable (attempt %d/%d): %v", attempt, maxRetries, err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect cancelled: %w", ctx.Err())
		case <-time.After(pg.retryDelay):
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", maxRetries, lastErr)
}

func (pg *PostgresDatabase) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", pg.GetConnectionString())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}
	if err := pg.db.Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
