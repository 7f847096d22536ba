package app

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/storage/mongo"
	"github.com/xenking/herbal-kart/internal/storage/postgres"
)

// OpenStore connects the configured document store. The returned close
// function releases its connections.
func OpenStore(ctx context.Context, cfg StoreConfig) (docstore.Store, func(context.Context) error, error) {
	switch cfg.Driver {
	case DriverMemory:
		return docstore.NewMemory(), func(context.Context) error { return nil }, nil
	case DriverMongo:
		db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		s := mongo.New(db)
		return s, s.Close, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewStore(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil
	default:
		return nil, nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// BindFlags registers the store selection flags on fs.
func (c *StoreConfig) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Driver, "driver", DriverMongo, "document store driver: memory, mongo or postgres")
	fs.StringVar(&c.MongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URL env)")
	fs.StringVar(&c.MongoDatabase, "mongo-database", "herbal_chicken", "MongoDB database name")
	fs.StringVar(&c.PostgresURL, "postgres-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
}

// ApplyEnv fills connection URLs left empty by flags from MONGO_URL and
// DATABASE_URL, then validates the result.
func (c *StoreConfig) ApplyEnv() error {
	if c.MongoURI == "" {
		c.MongoURI = os.Getenv("MONGO_URL")
	}
	if c.MongoURI == "" {
		c.MongoURI = defaultMongoURI
	}
	if c.PostgresURL == "" {
		c.PostgresURL = os.Getenv("DATABASE_URL")
	}
	return c.Validate()
}
