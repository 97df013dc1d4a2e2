package repo

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"QuestionnaireBot/model"
)

const catalogCacheKey = "catalog"

// CachedCatalog serves ListQuestions from memory for ttl. Empty catalogs are not cached.
type CachedCatalog struct {
	store CatalogStore
	cache *expirable.LRU[string, model.Catalog]
}

func NewCachedCatalog(store CatalogStore, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		store: store,
		cache: expirable.NewLRU[string, model.Catalog](1, nil, ttl),
	}
}

func (c *CachedCatalog) ListQuestions(ctx context.Context) (model.Catalog, error) {
	if catalog, ok := c.cache.Get(catalogCacheKey); ok {
		return catalog, nil
	}
	catalog, err := c.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) > 0 {
		c.cache.Add(catalogCacheKey, catalog)
	}
	return catalog, nil
}

func (c *CachedCatalog) SaveQuestion(ctx context.Context, q model.Question) error {
	if err := c.store.SaveQuestion(ctx, q); err != nil {
		return err
	}
	c.cache.Purge()
	return nil
}
