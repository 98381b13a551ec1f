package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the named blob does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the persistence medium for history snapshots: a named-blob
// store treated as the unit of load and save.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}
