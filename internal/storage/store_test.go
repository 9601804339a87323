package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	ref, err := store.Save("exhibit-a.pdf", strings.NewReader("evidence bytes"))
	require.NoError(t, err)

	assert.Equal(t, "exhibit-a.pdf", ref.Name)
	assert.True(t, strings.HasPrefix(ref.URL, "/uploads/"), "url=%s", ref.URL)
	assert.True(t, strings.HasSuffix(ref.URL, "_exhibit-a.pdf"), "url=%s", ref.URL)

	stored := strings.TrimPrefix(ref.URL, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, "evidence bytes", string(data))
}

func TestStore_CollidingNamesBothSurvive(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ref1, err := store.Save("photo.png", strings.NewReader("one"))
	require.NoError(t, err)
	ref2, err := store.Save("photo.png", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, ref1.URL, ref2.URL, "same upload name must not overwrite")
}

func TestStore_StripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	ref, err := store.Save("../../etc/passwd", strings.NewReader("nope"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", ref.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_passwd"))
}

func TestStore_RejectsEmptyFilename(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = store.Save("", strings.NewReader("x"))
	assert.Error(t, err)
}
