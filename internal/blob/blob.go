// Package blob contains interface for binary object storages.
package blob

import (
	"context"
	"errors"
	"sync"
)

//go:generate mockgen -destination=./mock/blob.go -package=mock -source=blob.go

var (
	// ErrConfiguration is returned when the blob store credentials are absent or invalid.
	ErrConfiguration = errors.New("blob store is not configured")
	// ErrUnavailable is returned when the blob store fails to serve a request.
	ErrUnavailable = errors.New("blob store unavailable")
)

// Store is a container/object storage.
type Store interface {
	// EnsureContainer creates the container if it doesn't exist.
	EnsureContainer(ctx context.Context, container string) error
	// Put writes data as the named object and returns its public url.
	Put(ctx context.Context, container, name string, data []byte, contentType string) (string, error)
	// Ping checks that the store is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// Opener resolves a Store from configuration.
// It's called on use, so missing configuration fails the request instead of the process.
type Opener func(ctx context.Context) (Store, error)

// Lazy wraps open so that the first successfully opened store is reused.
// Failures are not cached.
func Lazy(open Opener) Opener {
	var (
		mu sync.Mutex
		s  Store
	)

	return func(ctx context.Context) (Store, error) {
		mu.Lock()
		defer mu.Unlock()

		if s != nil {
			return s, nil
		}

		v, err := open(ctx)
		if err != nil {
			return nil, err
		}
		s = v

		return s, nil
	}
}
