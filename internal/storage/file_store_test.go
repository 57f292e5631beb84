package storage_test

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dotk/api/internal/config"
	"dotk/api/internal/storage"
)

func newStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(config.UploadConfig{
		Dir:        t.TempDir(),
		PublicBase: "/pub",
	}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestSaveAndRemove(t *testing.T) {
	store := newStore(t)

	webPath, size, err := store.Save("tenders", "tender_1_abc.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "/pub/tenders/tender_1_abc.pdf", webPath)
	require.Equal(t, int64(8), size)

	disk, err := store.DiskPath(webPath)
	require.NoError(t, err)
	_, err = os.Stat(disk)
	require.NoError(t, err)

	require.NoError(t, store.Remove(webPath))
	_, err = os.Stat(disk)
	require.True(t, os.IsNotExist(err))
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Remove("/pub/tenders/never-existed.pdf"))
}

func TestSaveRejectsDuplicateName(t *testing.T) {
	store := newStore(t)

	_, _, err := store.Save("events", "event_x.png", strings.NewReader("a"))
	require.NoError(t, err)

	_, _, err = store.Save("events", "event_x.png", strings.NewReader("b"))
	require.Error(t, err)
}

func TestDiskPathRejectsEscapes(t *testing.T) {
	store := newStore(t)

	_, err := store.DiskPath("/etc/passwd")
	require.Error(t, err)

	_, err = store.DiskPath("/pub/../../etc/passwd")
	require.Error(t, err)
}
