package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileRef is the stable reference handed back to the coordinator after an
// upload. Dispatching it as evidence is the coordinator's job, over the
// websocket; the store itself never broadcasts anything.
type FileRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Store persists uploaded evidence files under one directory and serves them
// back at /uploads/<name>.
type Store struct {
	dir string
	log *zap.Logger
}

func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Save writes the payload to disk under a collision-proof name and returns
// its reference. The original filename survives in the ref for display.
func (s *Store) Save(filename string, r io.Reader) (FileRef, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return FileRef{}, fmt.Errorf("invalid filename %q", filename)
	}
	stored := uuid.NewString()[:8] + "_" + base

	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return FileRef{}, fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return FileRef{}, fmt.Errorf("write upload: %w", err)
	}

	s.log.Info("evidence file stored",
		zap.String("file", stored),
		zap.Int64("bytes", n))

	return FileRef{URL: path.Join("/uploads", stored), Name: base}, nil
}

// Handler serves stored files. Mount under /uploads/.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.dir)))
}
