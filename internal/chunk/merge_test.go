package chunk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/mtdl/internal/chunk"
	"github.com/NamanBalaji/mtdl/internal/errors"
)

func writeParts(t *testing.T, dir string, contents ...string) []string {
	t.Helper()

	parts := make([]string, len(contents))
	for i, c := range contents {
		parts[i] = chunk.Chunk{Index: i}.TempFileName(dir)
		require.NoError(t, os.WriteFile(parts[i], []byte(c), 0o644))
	}

	return parts
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	parts := writeParts(t, dir, "hello ", "parallel ", "world")
	target := filepath.Join(dir, "out", "nested", "file.txt")

	require.NoError(t, chunk.Merge(target, parts))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello parallel world", string(data))
}

func TestMergeTruncatesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("a much longer previous content"), 0o644))

	require.NoError(t, chunk.Merge(target, writeParts(t, dir, "ab", "c")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestMergeNoPartsCreatesEmptyFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "empty.bin")

	require.NoError(t, chunk.Merge(target, nil))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestMergeMissingPart(t *testing.T) {
	dir := t.TempDir()
	parts := writeParts(t, dir, "first")
	parts = append(parts, filepath.Join(dir, "missing.tmp"))

	err := chunk.Merge(filepath.Join(dir, "out.bin"), parts)

	require.Error(t, err)
	assert.ErrorIs(t, err, chunk.ErrChunkFileOpen)
	assert.True(t, errors.IsCategory(err, errors.CategoryIO))
}

func TestMergeTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()

	err := chunk.Merge(dir, writeParts(t, dir, "x"))

	assert.ErrorIs(t, err, chunk.ErrTargetFileCreate)
}
