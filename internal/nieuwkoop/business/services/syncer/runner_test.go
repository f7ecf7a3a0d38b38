package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/storage/memory"
	"bloommarbella_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePass struct {
	calls  int
	since  []*time.Time
	result Result
	err    error
}

func (p *fakePass) SyncChanges(_ context.Context, since *time.Time, _ BatchConfig) (Result, error) {
	p.calls++
	p.since = append(p.since, since)
	return p.result, p.err
}

func newRunner(pass Pass, store *memory.Store) *Runner {
	return NewRunner(pass, store, BatchConfig{BatchSize: 10}, 2*time.Hour, logger.Discard())
}

func TestRunner_SuccessWritesTerminalLog(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pass := &fakePass{result: Result{Processed: 3, NewProducts: 2, UpdatedProducts: 1}}

	report, err := newRunner(pass, store).Run(ctx, models.SyncTypeManual, ModeChanges)
	require.NoError(t, err)

	assert.Equal(t, models.SyncStatusSuccess, report.Status)
	assert.NotEmpty(t, report.LogID)

	logs, err := store.RecentLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.SyncStatusSuccess, logs[0].Status)
	assert.Equal(t, models.SyncTypeManual, logs[0].Type)
	assert.Equal(t, 3, logs[0].ProductsProcessed)
	assert.Equal(t, 2, logs[0].Metadata.NewProducts)
	assert.Equal(t, "changes", logs[0].Metadata.Mode)
	assert.NotNil(t, logs[0].FinishedAt)
}

func TestRunner_ChangesModeUsesCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	last := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertCheckpoint(ctx, models.SyncCheckpoint{Key: models.CheckpointKey, LastSync: last, Status: models.SyncStatusSuccess}))
	pass := &fakePass{}
	r := newRunner(pass, store)

	_, err := r.Run(ctx, models.SyncTypeScheduled, ModeChanges)
	require.NoError(t, err)
	_, err = r.Run(ctx, models.SyncTypeManual, ModeFull)
	require.NoError(t, err)

	require.Len(t, pass.since, 2)
	require.NotNil(t, pass.since[0])
	assert.Equal(t, last, *pass.since[0])
	assert.Nil(t, pass.since[1])
}

func TestRunner_RunFromOverridesCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.UpsertCheckpoint(ctx, models.SyncCheckpoint{Key: models.CheckpointKey, LastSync: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Status: models.SyncStatusSuccess}))
	pass := &fakePass{}
	from := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	report, err := newRunner(pass, store).RunFrom(ctx, models.SyncTypeManual, from)
	require.NoError(t, err)

	assert.Equal(t, ModeChanges, report.Mode)
	require.Len(t, pass.since, 1)
	require.NotNil(t, pass.since[0])
	assert.Equal(t, from, *pass.since[0])
}

func TestRunner_RefusesWhileRecentRunInProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	running := models.SyncLogEntry{Type: models.SyncTypeScheduled, Status: models.SyncStatusInProgress, CreatedAt: time.Now().UTC().Add(-30 * time.Minute)}
	require.NoError(t, store.StartLog(ctx, &running))
	pass := &fakePass{}

	_, err := newRunner(pass, store).Run(ctx, models.SyncTypeManual, ModeChanges)

	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Zero(t, pass.calls)
}

func TestRunner_IgnoresStaleInProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	abandoned := models.SyncLogEntry{Type: models.SyncTypeScheduled, Status: models.SyncStatusInProgress, CreatedAt: time.Now().UTC().Add(-3 * time.Hour)}
	require.NoError(t, store.StartLog(ctx, &abandoned))
	pass := &fakePass{}

	_, err := newRunner(pass, store).Run(ctx, models.SyncTypeManual, ModeChanges)

	require.NoError(t, err)
	assert.Equal(t, 1, pass.calls)
}

func TestRunner_PassFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pass := &fakePass{err: errors.New("failed to fetch supplier products: timeout")}

	report, err := newRunner(pass, store).Run(ctx, models.SyncTypeScheduled, ModeChanges)

	require.Error(t, err)
	assert.Equal(t, models.SyncStatusError, report.Status)
	logs, err := store.RecentLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.SyncStatusError, logs[0].Status)
	assert.Equal(t, models.SyncTypeError, logs[0].Type)
	assert.Contains(t, logs[0].Metadata.Failure, "timeout")
}

func TestRunner_PartialOnRecordErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pass := &fakePass{result: Result{Processed: 2, NewProducts: 1, Errors: 1,
		ErrorDetails: []models.RecordError{{SKU: "X", Error: "boom"}}}}

	report, err := newRunner(pass, store).Run(ctx, models.SyncTypeManual, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPartial, report.Status)

	status, err := newRunner(pass, store).Status(ctx, 5)
	require.NoError(t, err)
	assert.False(t, status.Running)
	require.Len(t, status.Recent, 1)
	assert.Equal(t, []models.RecordError{{SKU: "X", Error: "boom"}}, status.Recent[0].Metadata.ErrorSamples)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeChanges, m)

	m, err = ParseMode("full")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestRunner_ScheduleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, newRunner(&fakePass{}, memory.NewStore()).Schedule(ctx, time.Minute))
	assert.Error(t, newRunner(&fakePass{}, memory.NewStore()).Schedule(context.Background(), 0))
}
