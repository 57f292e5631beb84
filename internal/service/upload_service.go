package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"dotk/api/internal/config"
	"dotk/api/internal/ids"
	"dotk/api/internal/storage"
)

var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file too large")
	ErrFileType     = errors.New("invalid file type")
)

// Allow-lists keyed by extension; the declared MIME type must match
// one of the values for that extension.
var documentTypes = map[string][]string{
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

var mediaTypes = map[string][]string{
	"jpg":  {"image/jpeg", "image/jpg"},
	"jpeg": {"image/jpeg", "image/jpg"},
	"png":  {"image/png"},
	"gif":  {"image/gif"},
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"mp4":  {"video/mp4"},
	"avi":  {"video/avi", "video/x-msvideo"},
	"mov":  {"video/quicktime"},
}

type SavedFile struct {
	WebPath  string
	Filename string
	Ext      string
	Size     int64
}

type UploadService struct {
	files           *storage.FileStore
	maxDocumentSize int64
	maxMediaSize    int64
	log             zerolog.Logger
}

func NewUploadService(files *storage.FileStore, cfg config.UploadConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		files:           files,
		maxDocumentSize: cfg.MaxDocumentSize,
		maxMediaSize:    cfg.MaxMediaSize,
		log:             log,
	}
}

// SaveTenderDocument stores a PDF or Word document for a tender under
// the public tenders directory.
func (s *UploadService) SaveTenderDocument(tenderID int64, fh *multipart.FileHeader) (SavedFile, error) {
	base := fmt.Sprintf("tender_%d_%s", tenderID, ids.New())
	return s.save(fh, "tenders", base, documentTypes, s.maxDocumentSize)
}

// SaveEventMedia stores event imagery, documents or video under the
// public events directory.
func (s *UploadService) SaveEventMedia(fh *multipart.FileHeader) (SavedFile, error) {
	return s.save(fh, "events", "event_"+ids.New(), mediaTypes, s.maxMediaSize)
}

func (s *UploadService) save(fh *multipart.FileHeader, subdir, base string, allowed map[string][]string, maxSize int64) (SavedFile, error) {
	if fh == nil {
		return SavedFile{}, ErrNoFile
	}
	if maxSize > 0 && fh.Size > maxSize {
		return SavedFile{}, ErrFileTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	mimes, ok := allowed[ext]
	if !ok {
		return SavedFile{}, ErrFileType
	}

	declared, _, _ := strings.Cut(fh.Header.Get("Content-Type"), ";")
	if !slices.Contains(mimes, strings.TrimSpace(declared)) {
		return SavedFile{}, ErrFileType
	}

	f, err := fh.Open()
	if err != nil {
		return SavedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	filename := base + "." + ext

	// The file hits disk before any metadata row is written; callers
	// that fail the insert afterwards log the orphaned file instead of
	// trying to unwind the write.
	webPath, size, err := s.files.Save(subdir, filename, f)
	if err != nil {
		return SavedFile{}, err
	}

	return SavedFile{
		WebPath:  webPath,
		Filename: filename,
		Ext:      ext,
		Size:     size,
	}, nil
}
