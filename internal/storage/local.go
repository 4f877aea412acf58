package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a root directory that the HTTP server exposes at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates root if needed. baseURL is the public prefix, e.g. http://host/files.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, pathname string, body io.Reader, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diskPath, clean, err := s.resolve(pathname)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}

	dst, err := os.Create(diskPath)
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		os.Remove(diskPath)
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("close blob: %w", err)
	}

	return &Object{URL: s.urlFor(clean), Pathname: clean}, nil
}

// Delete removes the blob behind rawURL. A blob that is already gone is not an error.
func (s *LocalStore) Delete(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pathname, err := s.pathnameFor(rawURL)
	if err != nil {
		return err
	}
	diskPath, _, err := s.resolve(pathname)
	if err != nil {
		return err
	}
	if err := os.Remove(diskPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(pathname string) (string, string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(pathname, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), clean, nil
}

func (s *LocalStore) urlFor(pathname string) string {
	parts := strings.Split(pathname, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

func (s *LocalStore) pathnameFor(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, s.baseURL+"/") {
		return "", ErrUnknownURL
	}
	escaped := strings.TrimPrefix(rawURL, s.baseURL+"/")
	pathname, err := url.PathUnescape(escaped)
	if err != nil {
		return "", ErrUnknownURL
	}
	return pathname, nil
}
