package authstore

import (
	"testing"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestStore_SaveLoadDelete(t *testing.T) {
	store := NewStore(testLogger(), t.TempDir())

	cookies := []browser.Cookie{
		{Name: "sid", Value: "abc123", Domain: "example.com", Path: "/", HTTPOnly: true},
		{Name: "theme", Value: "dark", Domain: "example.com"},
	}

	path, err := store.Save("example", cookies)
	require.NoError(t, err)
	assert.Contains(t, path, "example.json")

	loaded, err := store.Load("example")
	require.NoError(t, err)
	assert.Equal(t, cookies, loaded)

	sites, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"example"}, sites)

	deleted, err := store.Delete("example")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete("example")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_LoadMissingSite(t *testing.T) {
	store := NewStore(testLogger(), t.TempDir())

	cookies, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Nil(t, cookies)
}

func TestStore_ListEmptyDir(t *testing.T) {
	store := NewStore(testLogger(), t.TempDir()+"/missing")

	sites, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, sites)
}
