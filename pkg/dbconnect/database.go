package dbconnect

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Database - подключение с переиспользуемым пулом.
type Database interface {
	Connect(ctx context.Context) (*sqlx.DB, error)
	Ping() error
	Close() error
}
