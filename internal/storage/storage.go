// Package storage contains a storage interface.
package storage

import (
	"context"
	"fmt"

	"github.com/Decentr-net/odyssey/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// ErrAlreadyExists ...
var ErrAlreadyExists = fmt.Errorf("already exists")

// Storage provides methods for interacting with document store.
// Every document is written and read as a whole; there is no partial update.
type Storage interface {
	Ping(ctx context.Context) error

	Create(ctx context.Context, e *entities.Entry) error
	Get(ctx context.Context, id string) (*entities.Entry, error)
	// Replace overwrites the whole document except its id. Returns ErrNotFound if the document doesn't exist.
	Replace(ctx context.Context, e *entities.Entry) error
	// Delete removes the document. Returns ErrNotFound if the document doesn't exist.
	Delete(ctx context.Context, id string) error
	// ListByDateDesc returns all documents ordered by date descending.
	// Entries with equal dates keep insertion order.
	ListByDateDesc(ctx context.Context) ([]*entities.Entry, error)
}
