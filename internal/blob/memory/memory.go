// Package memory is an in-process implementation of blob interface.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/odyssey/internal/blob"
)

var log = logrus.WithField("layer", "blob").WithField("package", "memory")

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Store ...
type Store struct {
	baseURL string

	mu         sync.RWMutex
	containers map[string]map[string]Object
}

// New creates in-memory store. Returned urls are prefixed with baseURL.
func New(baseURL string) *Store {
	return &Store{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		containers: make(map[string]map[string]Object),
	}
}

// Opener returns blob.Opener always resolving to s.
func (s *Store) Opener() blob.Opener {
	return func(context.Context) (blob.Store, error) {
		return s, nil
	}
}

// EnsureContainer ...
func (s *Store) EnsureContainer(ctx context.Context, container string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", blob.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string]Object)
	}

	return nil
}

// Put ...
func (s *Store) Put(ctx context.Context, container, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", blob.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[container]
	if !ok {
		return "", fmt.Errorf("%w: container %s does not exist", blob.ErrUnavailable, container)
	}

	c[name] = Object{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, container, url.PathEscape(name)), nil
}

// Get returns a stored object.
func (s *Store) Get(container, name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.containers[container][name]
	return o, ok
}

// Mount registers GET route serving stored blobs under the path of baseURL,
// so urls returned by Put are resolvable through r.
func (s *Store) Mount(r chi.Router) {
	prefix := ""
	if u, err := url.Parse(s.baseURL); err == nil {
		prefix = strings.TrimSuffix(u.Path, "/")
	}

	r.Get(prefix+"/{container}/{name}", s.serve)
}

func (s *Store) serve(w http.ResponseWriter, r *http.Request) {
	container, name := chi.URLParam(r, "container"), chi.URLParam(r, "name")
	// chi routes by escaped path when it differs from the decoded one.
	if r.URL.RawPath != "" {
		if v, err := url.PathUnescape(name); err == nil {
			name = v
		}
	}

	o, ok := s.Get(container, name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", o.ContentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(o.Data)))
	if _, err := w.Write(o.Data); err != nil {
		log.WithError(err).Error("failed to write blob")
	}
}

// Ping ...
func (s *Store) Ping(_ context.Context) error {
	return nil
}
