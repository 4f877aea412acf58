// Package storage keeps uploaded file bytes outside the database and hands back public URLs.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidPath = errors.New("invalid blob path")
	ErrUnknownURL  = errors.New("url does not belong to this store")
)

// Object describes a stored blob.
type Object struct {
	URL      string
	Pathname string
}

// BlobStore puts and deletes blobs. Put overwrites an existing pathname.
type BlobStore interface {
	Put(ctx context.Context, pathname string, body io.Reader, contentType string) (*Object, error)
	Delete(ctx context.Context, url string) error
}
