// +build !integration

package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weaveworks/pubbot/common/dbconfig"
	"github.com/weaveworks/pubbot/store"
)

// Setup sets up stuff for testing, creating a new store
func Setup(t *testing.T) store.Store {
	s, err := store.New(store.Config{Database: dbconfig.Config{URI: "memory://"}})
	require.NoError(t, err)
	return s
}

// Cleanup cleans up after a test
func Cleanup(t *testing.T, s store.Store) {
	require.NoError(t, s.Close())
}
