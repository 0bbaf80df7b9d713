package storage

import (
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Get and Delete for unknown keys.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("blob already exists")
)

// BlobStore keeps uploaded pitch decks.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key; never overwrites
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
