// +build integration

package storetest

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weaveworks/common/logging"

	"github.com/weaveworks/pubbot/store"
)

var (
	databaseURI        = flag.String("database-uri", "postgres://postgres@pubbot-db.weave.local/pubbot_test?sslmode=disable", "Uri of a test database")
	databaseMigrations = flag.String("database-migrations", "/migrations", "Path where the database migration files can be found")
)

// Setup sets up stuff for testing, creating a new database
func Setup(t *testing.T) store.Store {
	require.NoError(t, logging.Setup("debug"))
	s, err := store.NewPostgres(*databaseURI, *databaseMigrations)
	require.NoError(t, err)
	require.NoError(t, s.Truncate())
	return s
}

// Cleanup cleans up after a test
func Cleanup(t *testing.T, s store.Store) {
	require.NoError(t, s.Close())
}
