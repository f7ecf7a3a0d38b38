package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"bloommarbella_api/config/values"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "BLOOM"

type NieuwkoopConfig struct {
	BaseURL           string        `yaml:"base_url" split_words:"true"`
	Username          string        `yaml:"username" split_words:"true"`
	Password          string        `yaml:"password" split_words:"true"`
	Timeout           time.Duration `yaml:"timeout" split_words:"true"`
	RequestsPerSecond float64       `yaml:"requests_per_second" split_words:"true"`
	Burst             int           `yaml:"burst" split_words:"true"`
	ImageBaseURL      string        `yaml:"image_base_url" split_words:"true"`
	TranslationsFile  string        `yaml:"translations_file" split_words:"true"`
	VisibilityPolicy  string        `yaml:"visibility_policy" split_words:"true"`
}

type SyncConfig struct {
	BatchSize             int           `yaml:"batch_size" split_words:"true"`
	PauseBetweenBatches   time.Duration `yaml:"pause_between_batches" split_words:"true"`
	EnableProgressLogging bool          `yaml:"progress_logging" split_words:"true"`
	Interval              time.Duration `yaml:"interval" split_words:"true"`
	StaleAfter            time.Duration `yaml:"stale_after" split_words:"true"`
}

type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" split_words:"true"`
	JanitorInterval time.Duration `yaml:"janitor_interval" split_words:"true"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
	File   string `yaml:"file" split_words:"true"`
}

type AppConfig struct {
	Nieuwkoop NieuwkoopConfig      `yaml:"nieuwkoop" split_words:"true"`
	Postgres  PostgresConfig       `yaml:"postgres" split_words:"true"`
	Sync      SyncConfig           `yaml:"sync" split_words:"true"`
	Cache     CacheConfig          `yaml:"cache" split_words:"true"`
	Catalog   values.CatalogValues `yaml:"catalog" split_words:"true"`
	Pricing   values.PricingValues `yaml:"pricing" split_words:"true"`
	HTTP      HTTPConfig           `yaml:"http" split_words:"true"`
	Log       LogConfig            `yaml:"log" split_words:"true"`
}

func Default() *AppConfig {
	return &AppConfig{
		Nieuwkoop: NieuwkoopConfig{
			BaseURL:          "https://customerapi.nieuwkoop-europe.com",
			Timeout:          30 * time.Second,
			Burst:            1,
			ImageBaseURL:     "https://images.nieuwkoop-europe.com/images",
			VisibilityPolicy: "stock_items",
		},
		Postgres: defaultPostgres(),
		Sync: SyncConfig{
			BatchSize:             100,
			PauseBetweenBatches:   time.Second,
			EnableProgressLogging: true,
			Interval:              6 * time.Hour,
			StaleAfter:            2 * time.Hour,
		},
		Cache: CacheConfig{
			TTL:             5 * time.Minute,
			JanitorInterval: 5 * time.Minute,
		},
		Catalog: values.DefaultCatalogValues(),
		Pricing: values.DefaultPricingValues(),
		HTTP:    HTTPConfig{Addr: ":8081"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig читает YAML (если файл есть) поверх значений по умолчанию,
// затем применяет переменные окружения BLOOM_*.
func LoadConfig(filename string) (*AppConfig, error) {
	config := Default()

	if filename != "" {
		file, err := os.Open(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			decoder := yaml.NewDecoder(file)
			if err := decoder.Decode(config); err != nil {
				return nil, fmt.Errorf("failed to decode config %s: %w", filename, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) Validate() error {
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Pricing.MarkupFactor <= 0 {
		return fmt.Errorf("pricing.markup_factor must be positive")
	}
	if c.Catalog.MaxPageSize <= 0 {
		return fmt.Errorf("catalog.max_page_size must be positive")
	}
	switch c.Nieuwkoop.VisibilityPolicy {
	case "", "stock_items", "webshop":
	default:
		return fmt.Errorf("nieuwkoop.visibility_policy must be stock_items or webshop, got %q", c.Nieuwkoop.VisibilityPolicy)
	}
	return nil
}
