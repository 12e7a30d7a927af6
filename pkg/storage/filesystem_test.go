package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("manuscripts/JNL-2026-00001/v1/paper.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.EqualValues(t, 8, n)

	f, err := store.Open("manuscripts/JNL-2026-00001/v1/paper.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete("manuscripts/JNL-2026-00001/v1/paper.pdf"))
	require.NoError(t, store.Delete("manuscripts/JNL-2026-00001/v1/paper.pdf"))
	_, err = store.Open("manuscripts/JNL-2026-00001/v1/paper.pdf")
	require.Error(t, err)
}

func TestLocalStorageStaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, dir))
}
