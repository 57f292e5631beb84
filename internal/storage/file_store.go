package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"dotk/api/internal/config"
)

// FileStore writes uploads under a directory served by the static
// site, and maps stored records' web paths (e.g. /pub/tenders/x.pdf)
// back to disk for cleanup.
type FileStore struct {
	root       string
	publicBase string
	log        zerolog.Logger
}

func NewFileStore(cfg config.UploadConfig, log zerolog.Logger) (*FileStore, error) {
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &FileStore{
		root:       root,
		publicBase: "/" + strings.Trim(cfg.PublicBase, "/"),
		log:        log,
	}, nil
}

// Save streams the reader into <root>/<subdir>/<filename> and returns
// the web-accessible path. Filenames are caller-generated and
// collision-resistant, so an existing file is treated as an error.
func (s *FileStore) Save(subdir, filename string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create %s: %w", subdir, err)
	}

	dst := filepath.Join(dir, filename)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", 0, fmt.Errorf("write file: %w", err)
	}

	return path.Join(s.publicBase, subdir, filename), size, nil
}

// Remove deletes the file backing a stored web path. A file already
// gone from disk is not an error: record deletion must stay idempotent
// with respect to its files.
func (s *FileStore) Remove(webPath string) error {
	full, err := s.DiskPath(webPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug().Str("path", webPath).Msg("file already removed")
			return nil
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// DiskPath resolves a stored web path to its on-disk location,
// rejecting anything that escapes the upload root.
func (s *FileStore) DiskPath(webPath string) (string, error) {
	rel, ok := strings.CutPrefix(webPath, s.publicBase+"/")
	if !ok {
		return "", fmt.Errorf("path %q is outside the public base", webPath)
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes the upload root", webPath)
	}
	return full, nil
}
