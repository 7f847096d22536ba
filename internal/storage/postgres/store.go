// Package postgres implements docstore.Store on a single PostgreSQL JSONB
// table.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/xenking/herbal-kart/internal/docstore"
)

const (
	insertSQL = `INSERT INTO documents (id, collection, doc) VALUES ($1, $2, $3::jsonb)`

	findOneSQL = `SELECT doc FROM documents
	WHERE collection = $1 AND doc @> $2::jsonb
	ORDER BY created_at, id
	LIMIT 1`

	// Dates are stored as {"$date": "..."} with a variable-width fraction,
	// so they are cast before comparing.
	findManySortedSQL = `SELECT doc FROM documents
	WHERE collection = $1 AND doc @> $2::jsonb
	ORDER BY (doc -> $3::text ->> '$date')::timestamptz %[1]s, doc -> $3::text %[1]s, created_at, id`

	findManySQL = `SELECT doc FROM documents
	WHERE collection = $1 AND doc @> $2::jsonb
	ORDER BY created_at, id`

	updateSQL = `UPDATE documents SET doc = doc || $3::jsonb
	WHERE collection = $1 AND id = (
		SELECT id FROM documents
		WHERE collection = $1 AND doc @> $2::jsonb
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE
	)`

	uniqueViolation = "23505"
)

var _ docstore.Store = (*Store)(nil)

// Store keeps all collections in the documents table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool. The schema must already
// be applied with RunMigrations.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	m, id, err := docstore.Encode(doc)
	if err != nil {
		return "", err
	}
	data, err := marshal(m)
	if err != nil {
		return "", err
	}
	if _, err := s.pool.Exec(ctx, insertSQL, id, collection, data); err != nil {
		return "", mapError(err, "insert into %s", collection)
	}
	return id, nil
}

// FindOne implements docstore.Store.
func (s *Store) FindOne(ctx context.Context, collection string, filter docstore.Filter, out any) error {
	f, err := marshalFilter(filter)
	if err != nil {
		return err
	}

	var data []byte
	if err := s.pool.QueryRow(ctx, findOneSQL, collection, f).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.ErrNotFound
		}
		return errors.Wrapf(err, "find in %s", collection)
	}
	if err := bson.UnmarshalExtJSON(data, false, out); err != nil {
		return errors.Wrapf(err, "decode %s document", collection)
	}
	return nil
}

// FindMany implements docstore.Store.
func (s *Store) FindMany(ctx context.Context, collection string, filter docstore.Filter, sort docstore.Sort, out any) error {
	f, err := marshalFilter(filter)
	if err != nil {
		return err
	}

	var rows pgx.Rows
	if sort.Field != "" {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		rows, err = s.pool.Query(ctx, fmt.Sprintf(findManySortedSQL, dir), collection, f, sort.Field)
	} else {
		rows, err = s.pool.Query(ctx, findManySQL, collection, f)
	}
	if err != nil {
		return errors.Wrapf(err, "query %s", collection)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (bson.Raw, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return nil, err
		}
		var raw bson.Raw
		if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
			return nil, errors.Wrap(err, "parse extended json")
		}
		return raw, nil
	})
	if err != nil {
		return errors.Wrapf(err, "scan %s", collection)
	}
	return docstore.DecodeAll(docs, out)
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Patch, upsert bool) (docstore.UpdateResult, error) {
	f, err := marshalFilter(filter)
	if err != nil {
		return docstore.UpdateResult{}, err
	}
	p, err := marshal(map[string]any(patch))
	if err != nil {
		return docstore.UpdateResult{}, err
	}

	tag, err := s.pool.Exec(ctx, updateSQL, collection, f, p)
	if err != nil {
		return docstore.UpdateResult{}, mapError(err, "update %s", collection)
	}
	if n := tag.RowsAffected(); n > 0 || !upsert {
		return docstore.UpdateResult{Matched: n}, nil
	}

	if _, err := s.Create(ctx, collection, docstore.Merge(filter, patch)); err != nil {
		return docstore.UpdateResult{}, err
	}
	return docstore.UpdateResult{Upserted: true}, nil
}

// EnsureIndex implements docstore.Store with a partial expression index
// scoped to the collection.
func (s *Store) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	name := pgx.Identifier{fmt.Sprintf("documents_%s_%s_idx", collection, field)}.Sanitize()
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	sql := fmt.Sprintf(`CREATE %s IF NOT EXISTS %s ON documents ((doc ->> %s)) WHERE collection = %s`,
		kind, name, quoteLiteral(field), quoteLiteral(collection))
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return errors.Wrapf(err, "create index %s.%s", collection, field)
	}
	return nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func marshal(m map[string]any) ([]byte, error) {
	data, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return nil, errors.Wrap(err, "encode extended json")
	}
	return data, nil
}

func marshalFilter(filter docstore.Filter) ([]byte, error) {
	if len(filter) == 0 {
		return []byte("{}"), nil
	}
	return marshal(map[string]any(filter))
}

func mapError(err error, format string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrapf(docstore.ErrDuplicateKey, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
