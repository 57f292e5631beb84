package service_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dotk/api/internal/config"
	"dotk/api/internal/service"
	"dotk/api/internal/storage"
)

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

func newUploadService(t *testing.T, cfg config.UploadConfig) (*service.UploadService, *storage.FileStore) {
	t.Helper()
	cfg.Dir = t.TempDir()
	cfg.PublicBase = "/pub"

	files, err := storage.NewFileStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	return service.NewUploadService(files, cfg, zerolog.Nop()), files
}

func TestSaveTenderDocument(t *testing.T) {
	uploads, files := newUploadService(t, config.UploadConfig{})

	saved, err := uploads.SaveTenderDocument(5, fileHeader(t, "notice.pdf", "application/pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(saved.WebPath, "/pub/tenders/tender_5_"), saved.WebPath)
	require.Equal(t, "pdf", saved.Ext)
	require.Equal(t, int64(8), saved.Size)

	disk, err := files.DiskPath(saved.WebPath)
	require.NoError(t, err)
	_, err = os.Stat(disk)
	require.NoError(t, err)
}

func TestSaveTenderDocumentRejectsMediaTypes(t *testing.T) {
	uploads, _ := newUploadService(t, config.UploadConfig{})

	// Extension outside the document allow-list.
	_, err := uploads.SaveTenderDocument(1, fileHeader(t, "photo.png", "image/png", []byte("png")))
	require.ErrorIs(t, err, service.ErrFileType)

	// Allowed extension with a mismatched declared MIME type.
	_, err = uploads.SaveTenderDocument(1, fileHeader(t, "notice.pdf", "image/png", []byte("x")))
	require.ErrorIs(t, err, service.ErrFileType)
}

func TestSaveEventMedia(t *testing.T) {
	uploads, _ := newUploadService(t, config.UploadConfig{})

	saved, err := uploads.SaveEventMedia(fileHeader(t, "festival.jpg", "image/jpeg", []byte("jpegdata")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(saved.WebPath, "/pub/events/event_"), saved.WebPath)
	require.Equal(t, "jpg", saved.Ext)
}

func TestSaveEventMediaSizeLimit(t *testing.T) {
	uploads, _ := newUploadService(t, config.UploadConfig{MaxMediaSize: 4})

	_, err := uploads.SaveEventMedia(fileHeader(t, "clip.mp4", "video/mp4", []byte("too large")))
	require.ErrorIs(t, err, service.ErrFileTooLarge)
}

func TestSaveWithoutFile(t *testing.T) {
	uploads, _ := newUploadService(t, config.UploadConfig{})

	_, err := uploads.SaveEventMedia(nil)
	require.ErrorIs(t, err, service.ErrNoFile)
}
