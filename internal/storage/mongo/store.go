// Package mongo implements docstore.Store on top of MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/herbal-kart/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Connect opens a client for uri, verifies it with a ping and returns the
// named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}
	return client.Database(database), nil
}

// Store keeps each collection as a MongoDB collection of the same name.
type Store struct {
	db *mongo.Database
}

// New returns a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	m, id, err := docstore.Encode(doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.Wrapf(docstore.ErrDuplicateKey, "insert into %s", collection)
		}
		return "", errors.Wrapf(err, "insert into %s", collection)
	}
	return id, nil
}

// FindOne implements docstore.Store.
func (s *Store) FindOne(ctx context.Context, collection string, filter docstore.Filter, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, toBSON(filter)).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.ErrNotFound
		}
		return errors.Wrapf(err, "find in %s", collection)
	}
	return nil
}

// FindMany implements docstore.Store.
func (s *Store) FindMany(ctx context.Context, collection string, filter docstore.Filter, sort docstore.Sort, out any) error {
	opts := options.Find()
	if sort.Field != "" {
		dir := 1
		if sort.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: sort.Field, Value: dir}})
	} else {
		opts.SetSort(bson.D{{Key: "$natural", Value: 1}})
	}

	cur, err := s.db.Collection(collection).Find(ctx, toBSON(filter), opts)
	if err != nil {
		return errors.Wrapf(err, "query %s", collection)
	}
	if err := cur.All(ctx, out); err != nil {
		return errors.Wrapf(err, "decode %s", collection)
	}
	return nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Patch, upsert bool) (docstore.UpdateResult, error) {
	update := bson.M{"$set": bson.M(patch)}
	if _, ok := filter[docstore.IDField]; upsert && !ok {
		update["$setOnInsert"] = bson.M{docstore.IDField: docstore.NewID()}
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, toBSON(filter), update, options.Update().SetUpsert(upsert))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return docstore.UpdateResult{}, errors.Wrapf(docstore.ErrDuplicateKey, "update %s", collection)
		}
		return docstore.UpdateResult{}, errors.Wrapf(err, "update %s", collection)
	}
	return docstore.UpdateResult{
		Matched:  res.MatchedCount,
		Upserted: res.UpsertedCount > 0,
	}, nil
}

// EnsureIndex implements docstore.Store.
func (s *Store) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	}
	if _, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return errors.Wrapf(err, "create index %s.%s", collection, field)
	}
	return nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func toBSON(filter docstore.Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}
