package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/pkg/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewPostgresRepository(db *sqlx.DB, log logger.Logger) *PostgresRepository {
	log.Log("Successfully connected to nieuwkoop repository")
	return &PostgresRepository{db: db, log: log}
}

type productRow struct {
	ID             uuid.UUID      `db:"id"`
	ItemCode       string         `db:"item_code"`
	SKU            string         `db:"sku"`
	Slug           string         `db:"slug"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Category       string         `db:"category"`
	Subcategory    string         `db:"subcategory"`
	BasePrice      float64        `db:"base_price"`
	Stock          int            `db:"stock"`
	Images         pq.StringArray `db:"images"`
	Specifications []byte         `db:"specifications"`
	Active         bool           `db:"active"`
	SysModified    sql.NullTime   `db:"sysmodified"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r productRow) toModel() (models.Product, error) {
	p := models.Product{
		ID:          r.ID,
		ItemCode:    r.ItemCode,
		SKU:         r.SKU,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		BasePrice:   r.BasePrice,
		Stock:       r.Stock,
		Images:      []string(r.Images),
		Active:      r.Active,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.SysModified.Valid {
		p.SysModified = r.SysModified.Time.UTC()
	}
	if len(r.Specifications) > 0 {
		if err := json.Unmarshal(r.Specifications, &p.Specifications); err != nil {
			return models.Product{}, fmt.Errorf("failed to decode specifications of %s: %w", r.SKU, err)
		}
	}
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (models.Product, error) {
	query := "SELECT " + productColumns + " FROM nieuwkoop.products WHERE " + column + " = $1"
	var row productRow
	if err := r.db.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, models.ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("failed to get product by %s: %w", column, err)
	}
	return row.toModel()
}

func (r *PostgresRepository) FindBySKU(ctx context.Context, sku string) (models.Product, error) {
	return r.findOne(ctx, "sku", sku)
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (models.Product, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) error {
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %w", err)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO nieuwkoop.products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.ItemCode, p.SKU, p.Slug, p.Name, p.Description, p.Category, p.Subcategory,
		p.BasePrice, p.Stock, pq.Array(nonNilStrings(p.Images)), string(specs), p.Active, nullTime(p.SysModified),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.SKU, err)
	}
	return nil
}

// Update перезаписывает синхронизируемые поля; slug и created_at не меняются.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE nieuwkoop.products
		SET item_code = $2, sku = $3, name = $4, description = $5, category = $6, subcategory = $7,
			base_price = $8, stock = $9, images = $10, specifications = $11, active = $12,
			sysmodified = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.ItemCode, p.SKU, p.Name, p.Description, p.Category, p.Subcategory,
		p.BasePrice, p.Stock, pq.Array(nonNilStrings(p.Images)), string(specs), p.Active,
		nullTime(p.SysModified), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", p.SKU, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	query, args := buildFindQuery(q)
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *PostgresRepository) Count(ctx context.Context, q ProductQuery) (int, error) {
	query, args := buildCountQuery(q)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) GetCheckpoint(ctx context.Context, key string) (*models.SyncCheckpoint, error) {
	query := `SELECT key_name, last_sync, status, updated_at FROM nieuwkoop.sync_checkpoints WHERE key_name = $1`
	var cp models.SyncCheckpoint
	err := r.db.QueryRowContext(ctx, query, key).Scan(&cp.Key, &cp.LastSync, &cp.Status, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync checkpoint: %w", err)
	}
	cp.LastSync = cp.LastSync.UTC()
	cp.UpdatedAt = cp.UpdatedAt.UTC()
	return &cp, nil
}

func (r *PostgresRepository) UpsertCheckpoint(ctx context.Context, cp models.SyncCheckpoint) error {
	query := `
		INSERT INTO nieuwkoop.sync_checkpoints (key_name, last_sync, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key_name) DO UPDATE
		SET last_sync = EXCLUDED.last_sync, status = EXCLUDED.status, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, cp.Key, cp.LastSync, cp.Status); err != nil {
		return fmt.Errorf("failed to upsert sync checkpoint: %w", err)
	}
	return nil
}

func (r *PostgresRepository) StartLog(ctx context.Context, entry *models.SyncLogEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode sync metadata: %w", err)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO nieuwkoop.sync_logs (id, type, status, products_processed, errors_count, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query, entry.ID, entry.Type, entry.Status,
		entry.ProductsProcessed, entry.ErrorsCount, string(meta), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// FinishLog переводит запись in_progress в терминальный статус.
func (r *PostgresRepository) FinishLog(ctx context.Context, entry *models.SyncLogEntry) error {
	if !entry.Status.Terminal() {
		return fmt.Errorf("sync log %s: status %q is not terminal", entry.ID, entry.Status)
	}
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode sync metadata: %w", err)
	}
	if entry.FinishedAt == nil {
		now := time.Now().UTC()
		entry.FinishedAt = &now
	}
	query := `
		UPDATE nieuwkoop.sync_logs
		SET status = $2, products_processed = $3, errors_count = $4, metadata = $5, finished_at = $6
		WHERE id = $1 AND status = $7
	`
	res, err := r.db.ExecContext(ctx, query, entry.ID, entry.Status, entry.ProductsProcessed,
		entry.ErrorsCount, string(meta), *entry.FinishedAt, models.SyncStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to finish sync log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sync log %s is not in progress", entry.ID)
	}
	return nil
}

type syncLogRow struct {
	ID                uuid.UUID    `db:"id"`
	Type              string       `db:"type"`
	Status            string       `db:"status"`
	ProductsProcessed int          `db:"products_processed"`
	ErrorsCount       int          `db:"errors_count"`
	Metadata          []byte       `db:"metadata"`
	CreatedAt         time.Time    `db:"created_at"`
	FinishedAt        sql.NullTime `db:"finished_at"`
}

func (r syncLogRow) toModel() (models.SyncLogEntry, error) {
	e := models.SyncLogEntry{
		ID:                r.ID,
		Type:              models.SyncType(r.Type),
		Status:            models.SyncStatus(r.Status),
		ProductsProcessed: r.ProductsProcessed,
		ErrorsCount:       r.ErrorsCount,
		CreatedAt:         r.CreatedAt.UTC(),
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time.UTC()
		e.FinishedAt = &t
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &e.Metadata); err != nil {
			return models.SyncLogEntry{}, fmt.Errorf("failed to decode sync metadata: %w", err)
		}
	}
	return e, nil
}

const syncLogColumns = `id, type, status, products_processed, errors_count, metadata, created_at, finished_at`

func (r *PostgresRepository) LatestInProgress(ctx context.Context, since time.Time) (*models.SyncLogEntry, error) {
	query := `SELECT ` + syncLogColumns + ` FROM nieuwkoop.sync_logs
		WHERE status = $1 AND created_at > $2
		ORDER BY created_at DESC LIMIT 1`
	var row syncLogRow
	if err := r.db.GetContext(ctx, &row, query, models.SyncStatusInProgress, since); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query in-progress sync: %w", err)
	}
	entry, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresRepository) RecentLogs(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + syncLogColumns + ` FROM nieuwkoop.sync_logs ORDER BY created_at DESC LIMIT $1`
	var rows []syncLogRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	entries := make([]models.SyncLogEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
