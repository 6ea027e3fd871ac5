package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"qcm-app/internal/app"
	"qcm-app/internal/domain"
)

const catalogKey = "catalog"

// CatalogRepository caches the whole catalog from a source with a TTL so
// menus and attempts do not re-read it on every lookup.
type CatalogRepository struct {
	source app.CatalogSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	catalog   domain.Catalog
	loaded    bool
	expiresAt time.Time
}

// NewCatalogRepository caches source for ttl. A ttl of zero or less keeps the
// catalog until the next AddQuiz.
func NewCatalogRepository(source app.CatalogSource, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) cached(now time.Time) (domain.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return domain.Catalog{}, false
	}
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return domain.Catalog{}, false
	}
	return r.catalog, true
}

func (r *CatalogRepository) load(ctx context.Context) (domain.Catalog, error) {
	if catalog, ok := r.cached(r.clock()); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		if catalog, ok := r.cached(now); ok {
			return catalog, nil
		}

		catalog, err := r.source.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		r.mu.Lock()
		r.catalog = catalog
		r.loaded = true
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *CatalogRepository) GetQuiz(ctx context.Context, category, title string) (domain.Quiz, error) {
	catalog, err := r.load(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	return catalog.Quiz(category, title)
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]string, error) {
	catalog, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.CategoryNames(), nil
}

func (r *CatalogRepository) ListTitles(ctx context.Context, category string) ([]string, error) {
	catalog, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Titles(category)
}

// AddQuiz writes through to the source and drops the cached copy.
func (r *CatalogRepository) AddQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := r.source.AddQuiz(ctx, quiz); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate forces the next lookup to reload from the source.
func (r *CatalogRepository) Invalidate() {
	r.mu.Lock()
	r.loaded = false
	r.catalog = domain.Catalog{}
	r.mu.Unlock()
}

// StaticCatalogSource serves a fixed catalog (useful for tests/demos).
type StaticCatalogSource struct {
	mu      sync.Mutex
	catalog domain.Catalog
}

func NewStaticCatalogSource(catalog domain.Catalog) *StaticCatalogSource {
	return &StaticCatalogSource{catalog: catalog}
}

func (s *StaticCatalogSource) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCatalog(s.catalog), nil
}

func (s *StaticCatalogSource) AddQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneCatalog(s.catalog)
	if err := next.Add(quiz); err != nil {
		return err
	}
	s.catalog = next
	return nil
}

func cloneCatalog(c domain.Catalog) domain.Catalog {
	out := domain.Catalog{Categories: make([]domain.Category, len(c.Categories))}
	for i, cat := range c.Categories {
		out.Categories[i] = domain.Category{
			Name:    cat.Name,
			Quizzes: append([]domain.Quiz(nil), cat.Quizzes...),
		}
	}
	return out
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% extra so several processes do not reload together
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
