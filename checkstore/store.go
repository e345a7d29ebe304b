// Package checkstore persists serialized checks as opaque blobs keyed by a
// location string.
package checkstore

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Store is a blob store. Put and Get are all or nothing: a blob is either
// fully written or read, or an error is returned.
type Store interface {
	Put(ctx context.Context, location string, data []byte) error
	Get(ctx context.Context, location string) ([]byte, error)
	// String describes the store for logging.
	String() string
}

// ErrNotFound is matched by errors.Is for every NotFoundError.
var ErrNotFound = errors.New("location not found")

type NotFoundError struct {
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound.Error(), e.Location)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
