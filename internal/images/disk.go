// Package images stores receipt images on local disk and serves them under a
// stable URL prefix.
package images

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"jangbu/internal/log"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrNotFound        = errors.New("image not found")
)

var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// DiskStore writes images under a single flat directory. Names are random,
// so the public URL never leaks anything about the record.
type DiskStore struct {
	dir     string
	baseURL string
	logger  *log.Logger
}

func NewDiskStore(dir, baseURL string, logger *log.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.WithComponent(log.ComponentImages),
	}, nil
}

// Dir returns the backing directory, for mounting a file server.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes the image and returns its public URL.
func (s *DiskStore) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	ext, ok := extByMime[strings.ToLower(mimeType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	url := s.baseURL + "/" + name
	s.logger.InfoContext(ctx, "image saved",
		log.FieldImageURL, url,
		"bytes", len(data))
	return url, nil
}

// Read returns the bytes behind a URL previously returned by Save.
func (s *DiskStore) Read(_ context.Context, imageURL string) ([]byte, error) {
	name, err := s.fileName(imageURL)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Remove deletes the file behind a URL. Removing a missing file is not an
// error so cleanup messages stay idempotent.
func (s *DiskStore) Remove(ctx context.Context, imageURL string) error {
	name, err := s.fileName(imageURL)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	s.logger.InfoContext(ctx, "image removed", log.FieldImageURL, imageURL)
	return nil
}

// fileName maps a public URL back to a bare file name, refusing anything
// that could escape the directory.
func (s *DiskStore) fileName(imageURL string) (string, error) {
	name := path.Base(imageURL)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, imageURL)
	}
	return name, nil
}
