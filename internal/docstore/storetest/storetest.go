// Package storetest provides a behavior suite shared by docstore.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/herbal-kart/internal/docstore"
)

type item struct {
	SKU      string  `bson:"sku"`
	Quantity int     `bson:"quantity"`
	Price    float64 `bson:"price"`
}

type record struct {
	ID        string    `bson:"_id,omitempty"`
	Owner     string    `bson:"owner"`
	Revision  string    `bson:"revision"`
	Items     []item    `bson:"items"`
	Note      *string   `bson:"note"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
}

// Run exercises store against the behavior every backend must share. Each
// subtest uses its own collection so a single store can be reused.
func Run(t *testing.T, store docstore.Store) {
	t.Helper()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CreateAndFindOne", func(t *testing.T) {
		ctx := context.Background()
		id, err := store.Create(ctx, "st_create", record{
			Owner:     "u1",
			Items:     []item{{SKU: "chicken-curry-cut", Quantity: 2, Price: 249.5}},
			Active:    true,
			CreatedAt: base,
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		var got record
		require.NoError(t, store.FindOne(ctx, "st_create", docstore.Filter{docstore.IDField: id}, &got))
		assert.Equal(t, "u1", got.Owner)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 249.5, got.Items[0].Price)
		assert.Nil(t, got.Note)
		assert.True(t, got.CreatedAt.Equal(base))

		err = store.FindOne(ctx, "st_create", docstore.Filter{"owner": "nobody"}, &got)
		assert.True(t, errors.Is(err, docstore.ErrNotFound))
	})

	t.Run("FindManyFilterAndSort", func(t *testing.T) {
		ctx := context.Background()
		for i, owner := range []string{"a", "b", "c"} {
			_, err := store.Create(ctx, "st_many", record{
				Owner:     owner,
				Active:    owner != "b",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		var active []record
		require.NoError(t, store.FindMany(ctx, "st_many", docstore.Filter{"active": true},
			docstore.Sort{Field: "created_at", Desc: true}, &active))
		require.Len(t, active, 2)
		assert.Equal(t, "c", active[0].Owner)
		assert.Equal(t, "a", active[1].Owner)

		var all []record
		require.NoError(t, store.FindMany(ctx, "st_many", nil, docstore.Sort{}, &all))
		assert.Len(t, all, 3)
	})

	t.Run("ConditionalUpdate", func(t *testing.T) {
		ctx := context.Background()
		_, err := store.Create(ctx, "st_update", record{Owner: "u1", Revision: "r1", Items: []item{}})
		require.NoError(t, err)

		res, err := store.Update(ctx, "st_update",
			docstore.Filter{"owner": "u1", "revision": "r1"},
			docstore.Patch{"revision": "r2", "items": []item{{SKU: "eggs", Quantity: 1, Price: 90}}},
			false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Matched)

		res, err = store.Update(ctx, "st_update",
			docstore.Filter{"owner": "u1", "revision": "r1"},
			docstore.Patch{"revision": "r3"},
			false)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Matched)
		assert.False(t, res.Upserted)

		var got record
		require.NoError(t, store.FindOne(ctx, "st_update", docstore.Filter{"owner": "u1"}, &got))
		assert.Equal(t, "r2", got.Revision)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "eggs", got.Items[0].SKU)
	})

	t.Run("Upsert", func(t *testing.T) {
		ctx := context.Background()
		res, err := store.Update(ctx, "st_upsert", docstore.Filter{"owner": "u7"}, docstore.Patch{"active": true}, true)
		require.NoError(t, err)
		assert.True(t, res.Upserted)

		var got record
		require.NoError(t, store.FindOne(ctx, "st_upsert", docstore.Filter{"owner": "u7"}, &got))
		assert.True(t, got.Active)
		assert.NotEmpty(t, got.ID)
	})

	t.Run("UniqueIndex", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.EnsureIndex(ctx, "st_unique", "owner", true))
		require.NoError(t, store.EnsureIndex(ctx, "st_unique", "owner", true))

		_, err := store.Create(ctx, "st_unique", record{Owner: "dup"})
		require.NoError(t, err)
		_, err = store.Create(ctx, "st_unique", record{Owner: "dup"})
		assert.True(t, errors.Is(err, docstore.ErrDuplicateKey), "got %v", err)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, store.Ping(context.Background()))
	})
}
