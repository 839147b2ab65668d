package authstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Profile 1"), 0o755))

	// Chrome wants the user data root plus the profile name, never the
	// profile subdirectory itself.
	got, ok := profileRoot(root, "Profile 1")
	require.True(t, ok)
	assert.Equal(t, root, got)

	_, ok = profileRoot(root, "Profile 2")
	assert.False(t, ok)
}
