package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuestionnaireBot/model"
)

type countingCatalog struct {
	*MemoryStore
	lists int
}

func (c *countingCatalog) ListQuestions(ctx context.Context) (model.Catalog, error) {
	c.lists++
	return c.MemoryStore.ListQuestions(ctx)
}

func TestCachedCatalog(t *testing.T) {
	ctx := context.Background()
	backing := &countingCatalog{MemoryStore: NewMemoryStore()}
	cached := NewCachedCatalog(backing, time.Minute)

	// empty catalogs are not cached so a later seed shows up immediately
	catalog, err := cached.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalog)

	require.NoError(t, cached.SaveQuestion(ctx, testQuestions[1]))
	for i := 0; i < 3; i++ {
		catalog, err = cached.ListQuestions(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, 1)
	}
	assert.Equal(t, 2, backing.lists)

	require.NoError(t, cached.SaveQuestion(ctx, testQuestions[0]))
	catalog, err = cached.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)
	assert.Equal(t, 3, backing.lists)
}
