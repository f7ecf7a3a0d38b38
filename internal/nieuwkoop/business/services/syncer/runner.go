package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/storage"
	"bloommarbella_api/metrics"
	"bloommarbella_api/pkg/logger"
)

var ErrSyncInProgress = errors.New("sync already in progress")

const DefaultStaleAfter = 2 * time.Hour

type Mode string

const (
	ModeChanges Mode = "changes"
	ModeFull    Mode = "full"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeChanges:
		return ModeChanges, nil
	case ModeFull:
		return ModeFull, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

type Pass interface {
	SyncChanges(ctx context.Context, since *time.Time, cfg BatchConfig) (Result, error)
}

type Report struct {
	Result
	LogID    string            `json:"logId"`
	Mode     Mode              `json:"mode"`
	Status   models.SyncStatus `json:"status"`
	Duration time.Duration     `json:"duration"`
}

type Status struct {
	Running    bool                   `json:"running"`
	Checkpoint *models.SyncCheckpoint `json:"checkpoint,omitempty"`
	Recent     []models.SyncLogEntry  `json:"recent"`
}

// Runner оборачивает проход синхронизации журналом sync_logs и защитой
// от параллельного запуска.
type Runner struct {
	pass       Pass
	store      storage.SyncStore
	cfg        BatchConfig
	staleAfter time.Duration
	log        logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

func NewRunner(pass Pass, store storage.SyncStore, cfg BatchConfig, staleAfter time.Duration, log logger.Logger) *Runner {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Runner{
		pass:       pass,
		store:      store,
		cfg:        cfg,
		staleAfter: staleAfter,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *Runner) Run(ctx context.Context, trigger models.SyncType, mode Mode) (Report, error) {
	return r.run(ctx, trigger, mode, nil)
}

// RunFrom выполняет проход changes от явно заданной отметки, минуя checkpoint.
func (r *Runner) RunFrom(ctx context.Context, trigger models.SyncType, since time.Time) (Report, error) {
	return r.run(ctx, trigger, ModeChanges, &since)
}

func (r *Runner) run(ctx context.Context, trigger models.SyncType, mode Mode, override *time.Time) (Report, error) {
	report := Report{Mode: mode}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return report, ErrSyncInProgress
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	started := r.now()
	// записи in_progress старше staleAfter считаются брошенными
	active, err := r.store.LatestInProgress(ctx, started.Add(-r.staleAfter))
	if err != nil {
		return report, fmt.Errorf("failed to check running syncs: %w", err)
	}
	if active != nil {
		r.log.Warn("Sync %s started at %s is still in progress, skipping", active.ID, active.CreatedAt.Format(time.RFC3339))
		return report, ErrSyncInProgress
	}

	since := override
	if since == nil && mode == ModeChanges {
		cp, err := r.store.GetCheckpoint(ctx, models.CheckpointKey)
		if err != nil {
			return report, fmt.Errorf("failed to read sync checkpoint: %w", err)
		}
		if cp != nil {
			last := cp.LastSync
			since = &last
		}
	}

	entry := models.SyncLogEntry{
		Type:      trigger,
		Status:    models.SyncStatusInProgress,
		CreatedAt: started,
		Metadata:  models.SyncLogMetadata{Mode: string(mode), Since: since},
	}
	if err := r.store.StartLog(ctx, &entry); err != nil {
		return report, fmt.Errorf("failed to write sync log: %w", err)
	}
	report.LogID = entry.ID.String()
	r.log.Log("Sync %s started (%s, mode %s)", entry.ID, trigger, mode)

	res, passErr := r.pass.SyncChanges(ctx, since, r.cfg)
	report.Result = res
	report.Duration = r.now().Sub(started)

	switch {
	case passErr != nil:
		report.Status = models.SyncStatusError
		entry.Type = models.SyncTypeError
		entry.Metadata.Failure = passErr.Error()
	case res.Errors > 0:
		report.Status = models.SyncStatusPartial
	default:
		report.Status = models.SyncStatusSuccess
	}

	finished := r.now()
	entry.Status = report.Status
	entry.ProductsProcessed = res.Processed
	entry.ErrorsCount = res.Errors
	entry.FinishedAt = &finished
	entry.Metadata.NewProducts = res.NewProducts
	entry.Metadata.UpdatedProducts = res.UpdatedProducts
	entry.Metadata.ErrorSamples = res.ErrorDetails
	entry.Metadata.DurationMs = report.Duration.Milliseconds()

	// журнал закрываем даже при отменённом контексте
	if err := r.store.FinishLog(context.WithoutCancel(ctx), &entry); err != nil {
		r.log.Error("Failed to finish sync log %s: %v", entry.ID, err)
	}
	metrics.RecordSyncPass(string(trigger), string(report.Status), report.Duration)

	if passErr != nil {
		r.log.Error("Sync %s failed after %v: %v", entry.ID, report.Duration, passErr)
		return report, passErr
	}
	r.log.Log("Sync %s finished with status %s in %v: %d new, %d updated, %d unchanged, %d errors",
		entry.ID, report.Status, report.Duration, res.NewProducts, res.UpdatedProducts, res.Unchanged, res.Errors)
	return report, nil
}

// Schedule запускает проход changes каждые interval до отмены ctx.
func (r *Runner) Schedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Log("Scheduled sync every %v", interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Run(ctx, models.SyncTypeScheduled, ModeChanges); err != nil {
				if errors.Is(err, ErrSyncInProgress) {
					continue
				}
				r.log.Warn("Scheduled sync failed: %v", err)
			}
		}
	}
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) LastSync(ctx context.Context) (*models.SyncCheckpoint, error) {
	return r.store.GetCheckpoint(ctx, models.CheckpointKey)
}

func (r *Runner) RecentLogs(ctx context.Context, n int) ([]models.SyncLogEntry, error) {
	return r.store.RecentLogs(ctx, n)
}

func (r *Runner) Status(ctx context.Context, n int) (Status, error) {
	cp, err := r.LastSync(ctx)
	if err != nil {
		return Status{}, err
	}
	logs, err := r.RecentLogs(ctx, n)
	if err != nil {
		return Status{}, err
	}
	return Status{Running: r.Running(), Checkpoint: cp, Recent: logs}, nil
}
