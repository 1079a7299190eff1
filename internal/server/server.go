// Package server Odyssey
//
// The Odyssey is a travel journal service which stores journal entries, their likes and comments, and uploaded images.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//     - multipart/form-data
//
// swagger:meta
package server

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/odyssey/internal/ingest"
	mm "github.com/Decentr-net/odyssey/internal/middleware"
	"github.com/Decentr-net/odyssey/internal/service"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const (
	defaultMaxBodySize   = 64 << 10
	defaultMaxUploadSize = 10 << 20
)

var log = logrus.WithField("layer", "api").WithField("package", "server")

// Ingester stores uploaded files.
type Ingester interface {
	Ingest(ctx context.Context, body []byte, contentType string) (*ingest.Result, error)
}

// Options ...
type Options struct {
	Timeout       time.Duration
	MaxBodySize   int64
	MaxUploadSize int64
}

type server struct {
	s service.Service
	i Ingester

	maxBodySize   int64
	maxUploadSize int64
}

// SetupRouter setups handlers to chi router.
func SetupRouter(r chi.Router, s service.Service, i Ingester, opts Options) {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUploadSize
	}

	r.Use(
		middleware.RequestID,
		mm.Logger,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		middleware.Recoverer,
		mm.Caller,
	)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	srv := server{
		s:             s,
		i:             i,
		maxBodySize:   opts.MaxBodySize,
		maxUploadSize: opts.MaxUploadSize,
	}

	r.Route("/journals", func(r chi.Router) {
		r.Get("/", srv.listEntries)
		r.Post("/", srv.createEntry)
		r.Get("/{id}", srv.getEntry)
		r.Put("/{id}", srv.replaceEntry)
		r.Delete("/{id}", srv.deleteEntry)
		r.Post("/{id}/likes", srv.toggleLike)
		r.Post("/{id}/comments", srv.addComment)
		r.Delete("/{id}/comments/{commentId}", srv.deleteComment)
	})
	r.Post("/upload", srv.upload)
}
