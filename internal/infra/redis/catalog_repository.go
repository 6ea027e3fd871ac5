package redis

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"qcm-app/internal/app"
	"qcm-app/internal/domain"
	"qcm-app/internal/infra/jsondoc"
)

// DefaultCatalogKey holds the catalog document, encoded the same way as qcms.json.
const DefaultCatalogKey = "qcm:catalog"

// CatalogRepository caches the catalog document in Redis and falls back to
// the source on a miss. Several processes sharing one Redis therefore share
// one cached catalog, and an AddQuiz in any of them drops it for all.
type CatalogRepository struct {
	client *redis.Client
	source app.CatalogSource
	key    string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	log    *zap.Logger
}

func NewCatalogRepository(client *redis.Client, source app.CatalogSource, ttl time.Duration, log *zap.Logger) *CatalogRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogRepository{
		client: client,
		source: source,
		key:    DefaultCatalogKey,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    log,
	}
}

func (r *CatalogRepository) fromCache(ctx context.Context) (domain.Catalog, bool) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("catalog cache read failed", zap.Error(err))
		}
		return domain.Catalog{}, false
	}
	catalog, err := jsondoc.DecodeCatalog(raw)
	if err != nil {
		r.log.Warn("discarding cached catalog", zap.Error(err))
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (r *CatalogRepository) load(ctx context.Context) (domain.Catalog, error) {
	if catalog, ok := r.fromCache(ctx); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(r.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.fromCache(ctx); ok {
			return catalog, nil
		}

		catalog, err := r.source.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		data, err := jsondoc.EncodeCatalog(catalog)
		if err == nil {
			err = r.client.Set(ctx, r.key, data, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.log.Warn("catalog cache write failed", zap.Error(err))
		}
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

// AddQuiz writes through to the source and deletes the cached document.
func (r *CatalogRepository) AddQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := r.source.AddQuiz(ctx, quiz); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
	return nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
