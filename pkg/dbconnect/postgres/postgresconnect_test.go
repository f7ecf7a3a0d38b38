package postgres

import (
	"context"
	"testing"

	"bloommarbella_api/config"
	"bloommarbella_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pg := NewPgConnector(&config.PostgresConfig{Host: "127.0.0.1", Port: "1", User: "u", DBName: "d"}, logger.Discard())
	db, err := pg.Connect(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, db)
}

func TestPingAndCloseWithoutConnection(t *testing.T) {
	pg := NewPgConnector(&config.PostgresConfig{}, logger.Discard())

	assert.Error(t, pg.Ping())
	assert.NoError(t, pg.Close())
}
