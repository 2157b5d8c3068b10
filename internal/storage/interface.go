// Package storage persists the domain table. A Backend loads the whole table
// on start and saves it back on stop.
package storage

import (
	"context"
	"errors"

	"github.com/n6g7/dnstable/internal/record"
)

// ErrNotFound is returned by Load when the backing store does not exist yet.
var ErrNotFound = errors.New("storage not found")

type Records = map[record.DomainName]record.IPAddress

type Backend interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) (Records, error)
	Save(ctx context.Context, records Records) error
}
