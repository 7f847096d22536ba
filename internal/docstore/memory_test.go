package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	Count     int       `bson:"count"`
	Tag       *string   `bson:"tag"`
	CreatedAt time.Time `bson:"created_at"`
}

func TestMemory_CreateAssignsID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id, err := s.Create(ctx, "things", testDoc{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, id, 24)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, "things", Filter{IDField: id}, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
}

func TestMemory_CreateKeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id, err := s.Create(ctx, "things", testDoc{ID: "fixed", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	_, err = s.Create(ctx, "things", testDoc{ID: "fixed", UserID: "u2"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestMemory_FindOneNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var got testDoc
	err := s.FindOne(ctx, "things", Filter{"user_id": "nobody"}, &got)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Create(ctx, "things", testDoc{UserID: "u1"})
	require.NoError(t, err)
	err = s.FindOne(ctx, "things", Filter{"user_id": "nobody"}, &got)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemory_FilterMatchesAcrossIntegerWidths(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Create(ctx, "things", testDoc{UserID: "u1", Count: 3})
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, "things", Filter{"count": 3}, &got))
	assert.Equal(t, "u1", got.UserID)
}

func TestMemory_NilFilterValueMatchesNull(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	tag := "x"
	_, err := s.Create(ctx, "things", testDoc{UserID: "tagged", Tag: &tag})
	require.NoError(t, err)
	_, err = s.Create(ctx, "things", testDoc{UserID: "untagged"})
	require.NoError(t, err)

	var got []testDoc
	require.NoError(t, s.FindMany(ctx, "things", Filter{"tag": nil}, Sort{}, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "untagged", got[0].UserID)
}

func TestMemory_FindManySort(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, user := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, "things", testDoc{UserID: user, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	var asc []testDoc
	require.NoError(t, s.FindMany(ctx, "things", nil, Sort{}, &asc))
	require.Len(t, asc, 3)
	assert.Equal(t, "a", asc[0].UserID)

	var desc []testDoc
	require.NoError(t, s.FindMany(ctx, "things", nil, Sort{Field: "created_at", Desc: true}, &desc))
	require.Len(t, desc, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{desc[0].UserID, desc[1].UserID, desc[2].UserID})
}

func TestMemory_FindManyEmptyCollection(t *testing.T) {
	var got []testDoc
	require.NoError(t, NewMemory().FindMany(context.Background(), "missing", nil, Sort{}, &got))
	assert.Empty(t, got)
}

func TestMemory_FindManyRejectsNonSlice(t *testing.T) {
	var got testDoc
	err := NewMemory().FindMany(context.Background(), "things", nil, Sort{}, &got)
	require.Error(t, err)
}

func TestMemory_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Create(ctx, "things", testDoc{UserID: "u1", Count: 1})
	require.NoError(t, err)

	res, err := s.Update(ctx, "things", Filter{"user_id": "u1", "count": 1}, Patch{"count": 2}, false)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1}, res)

	// Stale filter no longer matches.
	res, err = s.Update(ctx, "things", Filter{"user_id": "u1", "count": 1}, Patch{"count": 3}, false)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, "things", Filter{"user_id": "u1"}, &got))
	assert.Equal(t, 2, got.Count)
}

func TestMemory_Upsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	res, err := s.Update(ctx, "things", Filter{"user_id": "u9"}, Patch{"count": 7}, true)
	require.NoError(t, err)
	assert.True(t, res.Upserted)

	var got testDoc
	require.NoError(t, s.FindOne(ctx, "things", Filter{"user_id": "u9"}, &got))
	assert.Equal(t, 7, got.Count)
	assert.NotEmpty(t, got.ID)

	res, err = s.Update(ctx, "things", Filter{"user_id": "u9"}, Patch{"count": 8}, true)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1}, res)
}

func TestMemory_UniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.EnsureIndex(ctx, "things", "user_id", true))
	require.NoError(t, s.EnsureIndex(ctx, "things", "count", false))

	_, err := s.Create(ctx, "things", testDoc{UserID: "u1", Count: 1})
	require.NoError(t, err)
	_, err = s.Create(ctx, "things", testDoc{UserID: "u2", Count: 1})
	require.NoError(t, err)

	_, err = s.Create(ctx, "things", testDoc{UserID: "u1"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	_, err = s.Update(ctx, "things", Filter{"user_id": "u2"}, Patch{"user_id": "u1"}, false)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	// Rewriting a document with its own value is not a conflict.
	res, err := s.Update(ctx, "things", Filter{"user_id": "u1"}, Patch{"user_id": "u1", "count": 5}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)
}

func TestMalformedDocumentError(t *testing.T) {
	err := error(&MalformedDocumentError{Collection: "cart", ID: "1", Err: errors.New("bad price")})
	assert.True(t, errors.Is(err, ErrMalformedDocument))
	assert.Contains(t, err.Error(), "bad price")
}
