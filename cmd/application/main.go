package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloommarbella_api/config"
	"bloommarbella_api/internal/nieuwkoop/app"
	"bloommarbella_api/internal/nieuwkoop/business/services/syncer"
	"bloommarbella_api/pkg/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "bloommarbella: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bloommarbella",
		Usage: "Nieuwkoop catalog sync and storefront API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to YAML config (BLOOM_* env vars override it)",
				EnvVars: []string{"BLOOM_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run HTTP API, cache janitor and scheduled sync",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-schedule", Usage: "disable periodic sync"},
				},
				Action: func(c *cli.Context) error {
					srv, closeLog, err := newServer(c)
					if err != nil {
						return err
					}
					defer closeLog()
					return srv.Run(c.Context, !c.Bool("no-schedule"))
				},
			},
			{
				Name:  "sync",
				Usage: "run one sync pass and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Value: string(syncer.ModeChanges), Usage: "changes | full"},
					&cli.BoolFlag{Name: "full", Usage: "shortcut for --mode full"},
					&cli.StringFlag{Name: "since", Usage: "watermark override, YYYY-MM-DD or RFC3339"},
					&cli.BoolFlag{Name: "dry-run", Usage: "write into in-memory storage only"},
				},
				Action: func(c *cli.Context) error {
					mode, err := syncer.ParseMode(c.String("mode"))
					if err != nil {
						return err
					}
					if c.Bool("full") {
						mode = syncer.ModeFull
					}
					since, err := parseSince(c.String("since"))
					if err != nil {
						return err
					}
					if since != nil && mode == syncer.ModeFull {
						return fmt.Errorf("--since cannot be combined with a full sync")
					}
					srv, closeLog, err := newServer(c)
					if err != nil {
						return err
					}
					defer closeLog()

					report, err := srv.Sync(c.Context, mode, since, c.Bool("dry-run"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "sync %s: status=%s fetched=%d new=%d updated=%d unchanged=%d errors=%d in %s\n",
						report.Mode, report.Status, report.Result.Fetched, report.Result.NewProducts,
						report.Result.UpdatedProducts, report.Result.Unchanged, report.Result.Errors, report.Duration)
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "apply catalog database migrations",
				Action: func(c *cli.Context) error {
					srv, closeLog, err := newServer(c)
					if err != nil {
						return err
					}
					defer closeLog()
					return srv.Migrate(c.Context)
				},
			},
		},
	}
}

func parseSince(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --since value %q", v)
}

func newServer(c *cli.Context) (*app.CatalogServer, func(), error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	var writer io.Writer = os.Stdout
	closeLog := func() {}
	if cfg.Log.File != "" {
		file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = io.MultiWriter(os.Stdout, file)
		closeLog = func() { file.Close() }
	}

	log := logger.NewLoggerWithOptions(writer, "[Bloom]", logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return app.NewCatalogServer(cfg, log), closeLog, nil
}
