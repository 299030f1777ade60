package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/stream-harvester/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedPath(t *testing.T) {
	root := t.TempDir()

	err := fileutil.EnsureDir(root, "a", "b")
	require.Nil(t, err)

	info, statErr := os.Stat(filepath.Join(root, "a", "b"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_FailsOnFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := fileutil.EnsureDir(blocker, "child")
	require.NotNil(t, err)

	fileErr, ok := err.(*fileutil.FileError)
	require.True(t, ok)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "present.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	ok, err := fileutil.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fileutil.Exists(filepath.Join(root, "missing.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteFileAtomic_ReplacesContentAndLeavesNoTemp(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "nested", "out.txt")

	require.Nil(t, fileutil.WriteFileAtomic(path, []byte("first"), 0644))
	require.Nil(t, fileutil.WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
