package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

type MigrationInterface interface {
	UpMigration(*sql.DB) error
}

// Migrator - интерфейс самой библиотеки migrate.Migrate, подменяется в тестах.
type Migrator interface {
	Up() error
	Close() (error, error)
}

type MigrationEngine func(db *sql.DB, source fs.FS) (Migrator, error)

// EmbeddedMigration применяет SQL-миграции из встроенной файловой системы.
type EmbeddedMigration struct {
	Source fs.FS
	Engine MigrationEngine
}

func NewEmbeddedMigration(source fs.FS) *EmbeddedMigration {
	return &EmbeddedMigration{Source: source, Engine: DefaultEngine}
}

func DefaultEngine(db *sql.DB, source fs.FS) (Migrator, error) {
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	// отдельное соединение: Close мигратора вернёт его в пул, не закрывая *sql.DB
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: "bloom_schema_migrations"})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}

func (m *EmbeddedMigration) UpMigration(db *sql.DB) (err error) {
	mg, err := m.Engine(db, m.Source)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := mg.Close()
		if serr != nil && err == nil {
			err = fmt.Errorf("migration source error: %w", serr)
		}
		if dberr != nil && err == nil {
			err = fmt.Errorf("migration database error: %w", dberr)
		}
	}()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}
