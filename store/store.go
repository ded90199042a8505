package store

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/weaveworks/pubbot/common"
	"github.com/weaveworks/pubbot/common/dbconfig"
)

// ErrNotInteger is returned by Incr when the stored value is not an integer.
var ErrNotInteger = errors.New("value is not an integer")

// Store is the key-value state shared by handlers. Plain values and sets
// live in separate keyspaces; Delete clears both. Every call is atomic on its
// own; nothing spans several calls.
type Store interface {
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Incr increments the integer value of key, starting from 0, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// SAdd adds member to the set at key and reports whether it was not already there.
	SAdd(ctx context.Context, key, member string) (bool, error)
	// SRem removes member from the set at key and reports whether it was there.
	SRem(ctx context.Context, key, member string) (bool, error)
	// SMembers returns the members of the set at key, sorted.
	SMembers(ctx context.Context, key string) ([]string, error)

	// MGet returns the values of keys in order, nil for missing ones.
	MGet(ctx context.Context, keys ...string) ([]*string, error)

	Close() error
}

// Config configures the state store.
type Config struct {
	Database        dbconfig.Config
	CacheSize       int
	CacheExpiration time.Duration
}

// RegisterFlags adds the flags required to configure this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.Database.RegisterFlags(f,
		"memory://", "URI where the state store can be found (for dev you can use memory://)",
		"", "Path where the database migration files can be found")
	f.IntVar(&cfg.CacheSize, "store.cache-size", 0, "Number of values kept in the read cache; 0 disables it")
	f.DurationVar(&cfg.CacheExpiration, "store.cache-expiration", 30*time.Second, "How long cached values are kept")
}

// New creates the store named by the database URI scheme, wrapped with timing and tracing.
func New(cfg Config) (Store, error) {
	src, err := cfg.Database.Source()
	if err != nil {
		return nil, err
	}
	var s Store
	switch src.Scheme {
	case "memory":
		s = NewMemory()
	case "postgres":
		s, err = NewPostgres(src.DataSourceName, src.MigrationsDir)
	default:
		return nil, fmt.Errorf("Unknown database type: %s", src.Scheme)
	}
	if err != nil {
		return nil, err
	}
	s = traced{timed{s, common.DatabaseRequestDuration}}
	if cfg.CacheSize > 0 {
		s = newCached(s, cfg.CacheSize, cfg.CacheExpiration)
	}
	return s, nil
}
