package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bloommarbella_api/config"
	"bloommarbella_api/internal/nieuwkoop/app/web"
	"bloommarbella_api/internal/nieuwkoop/app/web/handlers"
	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/services/catalog"
	"bloommarbella_api/internal/nieuwkoop/business/services/pricing"
	"bloommarbella_api/internal/nieuwkoop/business/services/realtime"
	"bloommarbella_api/internal/nieuwkoop/business/services/syncer"
	"bloommarbella_api/internal/nieuwkoop/business/services/transform"
	"bloommarbella_api/internal/nieuwkoop/business/services/translation"
	"bloommarbella_api/internal/nieuwkoop/pkg/clients"
	"bloommarbella_api/internal/nieuwkoop/storage"
	"bloommarbella_api/internal/nieuwkoop/storage/memory"
	catalogmigrations "bloommarbella_api/migrations/catalog"
	"bloommarbella_api/pkg/dbconnect"
	"bloommarbella_api/pkg/dbconnect/migration"
	"bloommarbella_api/pkg/dbconnect/postgres"
	"bloommarbella_api/pkg/logger"
	"bloommarbella_api/pkg/middleware"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

type CatalogServer struct {
	cfg *config.AppConfig
	log *logger.BaseLogger
}

func NewCatalogServer(cfg *config.AppConfig, log *logger.BaseLogger) *CatalogServer {
	return &CatalogServer{cfg: cfg, log: log}
}

// components - собранный граф зависимостей одного процесса.
type components struct {
	store  storage.Store
	pinger handlers.Pinger
	client *clients.NieuwkoopClient
	runner *syncer.Runner
	cache  *realtime.Cache
	engine *catalog.Engine
	close  func() error
}

func (s *CatalogServer) connector() dbconnect.Database {
	return postgres.NewPgConnector(&s.cfg.Postgres, s.log.WithPrefix("[Postgres]"))
}

// Migrate применяет встроенные миграции каталога.
func (s *CatalogServer) Migrate(ctx context.Context) error {
	connector := s.connector()
	db, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	defer connector.Close()

	if err := migration.NewEmbeddedMigration(catalogmigrations.FS).UpMigration(db.DB); err != nil {
		return fmt.Errorf("catalog migration failed: %w", err)
	}
	s.log.Log("Catalog migrations applied successfully")
	return nil
}

func (s *CatalogServer) build(ctx context.Context, dryRun bool) (*components, error) {
	c := &components{close: func() error { return nil }}

	if dryRun {
		c.store = memory.NewStore()
		s.log.Warn("Dry run: using in-memory storage, nothing is persisted")
	} else {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		connector := s.connector()
		db, err := connector.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
		}
		repo := storage.NewPostgresRepository(db, s.log.WithPrefix("[Repository]"))
		c.store = repo
		c.pinger = repo
		c.close = connector.Close
	}

	nk := s.cfg.Nieuwkoop
	clientLog := s.log.WithPrefix("[NieuwkoopClient]")
	mws := []middleware.Middleware{middleware.Metrics(), middleware.Logging(clientLog)}
	if nk.RequestsPerSecond > 0 {
		burst := nk.Burst
		if burst <= 0 {
			burst = 1
		}
		mws = append(mws, middleware.RateLimit(rate.NewLimiter(rate.Limit(nk.RequestsPerSecond), burst)))
	}
	policy, err := clients.VisibilityPolicyByName(nk.VisibilityPolicy)
	if err != nil {
		c.close()
		return nil, err
	}
	c.client = clients.NewNieuwkoopClient(nk.BaseURL, nk.Timeout, clients.NewBasicAuth(nk.Username, nk.Password), clientLog, mws...)
	c.client.Policy = policy

	table, err := translation.Load(nk.TranslationsFile)
	if err != nil {
		c.close()
		return nil, err
	}
	transformer := transform.NewTransformer(table, transform.ImageURLBuilder{BaseURL: nk.ImageBaseURL})

	engine := syncer.NewEngine(c.client, c.store, c.store, transformer, s.log.WithPrefix("[SyncEngine]"))
	batch := syncer.BatchConfig{
		BatchSize:             s.cfg.Sync.BatchSize,
		PauseBetweenBatches:   s.cfg.Sync.PauseBetweenBatches,
		EnableProgressLogging: s.cfg.Sync.EnableProgressLogging,
	}
	c.runner = syncer.NewRunner(engine, c.store, batch, s.cfg.Sync.StaleAfter, s.log.WithPrefix("[SyncRunner]"))

	c.cache = realtime.NewCache(c.client, c.store, s.cfg.Cache.TTL, realtime.SystemClock{}, s.log.WithPrefix("[PriceStockCache]"))
	c.engine = catalog.NewEngine(c.store, c.cache, pricing.NewCalculator(s.cfg.Pricing), s.cfg.Catalog, s.log.WithPrefix("[Catalog]"))
	return c, nil
}

// Sync выполняет один проход синхронизации и завершается.
// Непустой since заменяет отметку из checkpoint.
func (s *CatalogServer) Sync(ctx context.Context, mode syncer.Mode, since *time.Time, dryRun bool) (syncer.Report, error) {
	c, err := s.build(ctx, dryRun)
	if err != nil {
		return syncer.Report{}, err
	}
	defer c.close()
	if since != nil {
		return c.runner.RunFrom(ctx, models.SyncTypeManual, *since)
	}
	return c.runner.Run(ctx, models.SyncTypeManual, mode)
}

// Run поднимает HTTP-сервер, очистку кэша и плановую синхронизацию до отмены ctx.
func (s *CatalogServer) Run(ctx context.Context, schedule bool) error {
	c, err := s.build(ctx, false)
	if err != nil {
		return err
	}
	defer c.close()

	checks := map[string]handlers.Pinger{"supplier": c.client}
	if c.pinger != nil {
		checks["postgres"] = c.pinger
	}
	httpLog := s.log.WithPrefix("[HTTP]")
	router, err := web.SetupRoutes(ctx, httpLog,
		handlers.NewProductHandler(c.engine, c.pinger, httpLog),
		handlers.NewRealtimeHandler(c.cache, httpLog),
		handlers.NewSyncHandler(ctx, c.runner, httpLog),
		handlers.NewHealthHandler(checks, httpLog),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Log("Catalog API listening on %s", s.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return c.cache.RunJanitor(gctx, s.cfg.Cache.JanitorInterval)
	})
	if schedule {
		g.Go(func() error {
			return c.runner.Schedule(gctx, s.cfg.Sync.Interval)
		})
	}

	return g.Wait()
}
