package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/storage"

	"github.com/google/uuid"
)

// Store - хранилище в памяти с той же семантикой запросов, что и PostgresRepository.
type Store struct {
	mu          sync.RWMutex
	products    map[uuid.UUID]models.Product
	bySKU       map[string]uuid.UUID
	bySlug      map[string]uuid.UUID
	checkpoints map[string]models.SyncCheckpoint
	logs        []models.SyncLogEntry
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:    make(map[uuid.UUID]models.Product),
		bySKU:       make(map[string]uuid.UUID),
		bySlug:      make(map[string]uuid.UUID),
		checkpoints: make(map[string]models.SyncCheckpoint),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) FindBySKU(_ context.Context, sku string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySKU[sku]
	if !ok {
		return models.Product{}, models.ErrProductNotFound
	}
	return clone(s.products[id]), nil
}

func (s *Store) FindBySlug(_ context.Context, slug string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return models.Product{}, models.ErrProductNotFound
	}
	return clone(s.products[id]), nil
}

func (s *Store) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySKU[p.SKU]; exists {
		return fmt.Errorf("product with sku %s already exists", p.SKU)
	}
	if _, exists := s.bySlug[p.Slug]; exists {
		return fmt.Errorf("product with slug %s already exists", p.Slug)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = clone(*p)
	s.bySKU[p.SKU] = p.ID
	s.bySlug[p.Slug] = p.ID
	return nil
}

func (s *Store) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[p.ID]
	if !ok {
		return models.ErrProductNotFound
	}
	if other, exists := s.bySKU[p.SKU]; exists && other != p.ID {
		return fmt.Errorf("product with sku %s already exists", p.SKU)
	}
	p.Slug = current.Slug
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.now()

	delete(s.bySKU, current.SKU)
	s.products[p.ID] = clone(*p)
	s.bySKU[p.SKU] = p.ID
	return nil
}

func (s *Store) Find(_ context.Context, q storage.ProductQuery) ([]models.Product, error) {
	s.mu.RLock()
	matched := s.filter(q)
	s.mu.RUnlock()

	sortProducts(matched, q)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []models.Product{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) Count(_ context.Context, q storage.ProductQuery) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filter(q)), nil
}

func (s *Store) filter(q storage.ProductQuery) []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if matches(p, q) {
			out = append(out, clone(p))
		}
	}
	return out
}

func matches(p models.Product, q storage.ProductQuery) bool {
	if q.ActiveOnly && !p.Active {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if len(q.Categories) > 0 && !inCategories(p, q.Categories) {
		return false
	}
	if len(q.AdvancedCategories) > 0 && !inCategories(p, q.AdvancedCategories) {
		return false
	}
	if q.MinBasePrice != nil && p.BasePrice < *q.MinBasePrice {
		return false
	}
	if q.MaxBasePrice != nil && p.BasePrice > *q.MaxBasePrice {
		return false
	}
	return p.MatchesSearch(q.Search)
}

func inCategories(p models.Product, set []string) bool {
	for _, c := range set {
		if p.Category == c || p.Subcategory == c {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, q storage.ProductQuery) {
	desc := q.SortOrder == models.SortDesc && q.SortBy != models.SortByOffer
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		var cmp int
		switch q.SortBy {
		case models.SortByPrice:
			cmp = compareFloat(a.BasePrice, b.BasePrice)
		case models.SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case models.SortByOffer:
			switch {
			case a.Specifications.IsOffer != b.Specifications.IsOffer:
				if a.Specifications.IsOffer {
					cmp = -1
				} else {
					cmp = 1
				}
			default:
				cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			}
		default:
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if desc {
			cmp = -cmp
		}
		if cmp == 0 {
			return a.SKU < b.SKU
		}
		return cmp < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *Store) GetCheckpoint(_ context.Context, key string) (*models.SyncCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[key]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (s *Store) UpsertCheckpoint(_ context.Context, cp models.SyncCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp.UpdatedAt = s.now()
	s.checkpoints[cp.Key] = cp
	return nil
}

func (s *Store) StartLog(_ context.Context, entry *models.SyncLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *Store) FinishLog(_ context.Context, entry *models.SyncLogEntry) error {
	if !entry.Status.Terminal() {
		return fmt.Errorf("sync log %s: status %q is not terminal", entry.ID, entry.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID != entry.ID {
			continue
		}
		if s.logs[i].Status != models.SyncStatusInProgress {
			return fmt.Errorf("sync log %s is not in progress", entry.ID)
		}
		if entry.FinishedAt == nil {
			now := s.now()
			entry.FinishedAt = &now
		}
		entry.CreatedAt = s.logs[i].CreatedAt
		s.logs[i] = *entry
		return nil
	}
	return fmt.Errorf("sync log %s is not in progress", entry.ID)
}

func (s *Store) LatestInProgress(_ context.Context, since time.Time) (*models.SyncLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.SyncLogEntry
	for i := range s.logs {
		e := s.logs[i]
		if e.Status != models.SyncStatusInProgress || !e.CreatedAt.After(since) {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = &e
		}
	}
	return latest, nil
}

func (s *Store) RecentLogs(_ context.Context, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	out := make([]models.SyncLogEntry, len(s.logs))
	copy(out, s.logs)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if p.Specifications.Tags != nil {
		p.Specifications.Tags = append([]models.Tag(nil), p.Specifications.Tags...)
	}
	if p.Specifications.Certifications != nil {
		p.Specifications.Certifications = append([]string(nil), p.Specifications.Certifications...)
	}
	return p
}
