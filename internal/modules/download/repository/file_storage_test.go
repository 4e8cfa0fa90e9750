package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	filePath := filepath.Join(dir, "a.zip")
	writeFile(t, filePath, "data")

	assert.True(t, storage.Exists(filePath))
	assert.False(t, storage.Exists(filepath.Join(dir, "missing.zip")))
	// A directory does not occupy the name as far as downloads are concerned.
	assert.False(t, storage.Exists(dir))
}

func TestNextName(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	path := filepath.Join(dir, "a.zip")
	writeFile(t, path, "data")

	assert.Equal(t, filepath.Join(dir, "a-1.zip"), storage.NextName(path))

	writeFile(t, filepath.Join(dir, "a-1.zip"), "data")
	assert.Equal(t, filepath.Join(dir, "a-2.zip"), storage.NextName(path))
}

func TestReconcileCollapsesIdenticalCopy(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	original := filepath.Join(dir, "a.zip")
	duplicate := filepath.Join(dir, "a-1.zip")
	writeFile(t, original, "same bytes")
	writeFile(t, duplicate, "same bytes")

	final, err := storage.Reconcile(duplicate)
	require.NoError(t, err)

	assert.Equal(t, original, final)
	assert.NoFileExists(t, duplicate)
	assert.FileExists(t, original)
}

func TestReconcileKeepsDifferingFile(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	original := filepath.Join(dir, "a.zip")
	duplicate := filepath.Join(dir, "a-1.zip")
	writeFile(t, original, "old bytes")
	writeFile(t, duplicate, "new bytes")

	final, err := storage.Reconcile(duplicate)
	require.NoError(t, err)

	assert.Equal(t, duplicate, final)
	assert.FileExists(t, original)
	assert.FileExists(t, duplicate)
}

func TestReconcileComparesAgainstPreviousAlternate(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	writeFile(t, filepath.Join(dir, "a-1.zip"), "bytes")
	writeFile(t, filepath.Join(dir, "a-2.zip"), "bytes")

	final, err := storage.Reconcile(filepath.Join(dir, "a-2.zip"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a-1.zip"), final)
	assert.NoFileExists(t, filepath.Join(dir, "a-2.zip"))
}

func TestReconcileWithoutCounterIsNoop(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage()

	path := filepath.Join(dir, "plain.zip")
	writeFile(t, path, "bytes")

	final, err := storage.Reconcile(path)
	require.NoError(t, err)
	assert.Equal(t, path, final)
}
