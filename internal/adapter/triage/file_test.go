package triage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unresolved.txt")
	f := NewFile(path)

	require.NoError(t, f.Record(context.Background(), 9999))
	require.NoError(t, f.Record(context.Background(), 1042))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9999\n1042\n", string(data))
}

func TestFile_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unresolved.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\n2\n"), 0o600))
	f := NewFile(path)

	require.NoError(t, f.Reset())
	assert.NoFileExists(t, path)

	require.NoError(t, f.Reset(), "resetting a missing file is fine")

	require.NoError(t, f.Record(context.Background(), 3))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(data))
}

func TestFile_RecordUnwritableDir(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing", "unresolved.txt"))
	err := f.Record(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open triage file")
}
