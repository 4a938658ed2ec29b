package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	dErrors "agristack/pkg/domain-errors"
	"agristack/pkg/platform/sentinel"
)

// MaxPhotoBytes bounds a single upload.
const MaxPhotoBytes = 10 << 20

// FileBlobs stores uploaded photos on local disk and hands back URLs under
// baseURL. The server mounts the same directory read-only at baseURL.
type FileBlobs struct {
	dir     string
	baseURL string
}

func NewFileBlobs(dir, baseURL string) (*FileBlobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileBlobs{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *FileBlobs) Dir() string { return b.dir }

// Put stores an image under a random key that keeps the original extension
// and returns its public URL.
func (b *FileBlobs) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "file is empty")
	}
	if len(data) > MaxPhotoBytes {
		return "", dErrors.New(dErrors.CodeValidation, "file exceeds 10 MB")
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return "", dErrors.New(dErrors.CodeValidation, "only image uploads are accepted")
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 6 {
		ext = ""
	}
	key := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(b.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w: %w", sentinel.ErrUnavailable, err)
	}
	return b.baseURL + "/" + path.Clean(key), nil
}

// Exists reports whether key (the last path element of a URL from Put) is stored.
func (b *FileBlobs) Exists(key string) bool {
	_, err := os.Stat(filepath.Join(b.dir, filepath.Base(key)))
	return err == nil
}
