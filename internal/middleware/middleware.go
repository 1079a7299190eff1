// Package middleware contains http middlewares shared by the api.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/tomasen/realip"

	"github.com/Decentr-net/odyssey/internal/entities"
)

// Caller identity headers.
const (
	UserIDHeader    = "X-User-Id"
	UserNameHeader  = "X-User-Name"
	UserAdminHeader = "X-User-Admin"
)

type callerKey struct{}

var log = logrus.WithField("layer", "api").WithField("package", "middleware")

// Logger logs every request with its status and duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			l := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"ip":         realip.FromRequest(r),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			})

			if ww.Status() >= http.StatusInternalServerError {
				l.Warn("request failed")
				return
			}
			l.Debug("request served")
		}()

		next.ServeHTTP(ww, r)
	})
}

// Caller puts caller identity taken from request headers into the request context.
// Identity is not verified here, it's supplied by the gateway in front of the service.
func Caller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := entities.Caller{
			ID:   strings.TrimSpace(r.Header.Get(UserIDHeader)),
			Name: strings.TrimSpace(r.Header.Get(UserNameHeader)),
		}

		if c.ID != "" {
			c.IsAdmin, _ = strconv.ParseBool(r.Header.Get(UserAdminHeader))
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c entities.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// GetCaller returns caller from the context. Missing caller is anonymous.
func GetCaller(ctx context.Context) entities.Caller {
	c, _ := ctx.Value(callerKey{}).(entities.Caller)
	return c
}
