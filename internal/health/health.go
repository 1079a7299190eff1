// Package health contains code for health checks.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// nolint:gochecknoglobals
var (
	version = "dev"
	commit  = "undefined"
)

var log = logrus.WithField("layer", "api").WithField("package", "health")

// GetVersion returns service's version and commit.
func GetVersion() string {
	return fmt.Sprintf("%s-%s", version, commit)
}

// Response ...
type Response struct {
	Version string            `json:"version"`
	Commit  string            `json:"commit"`
	Errors  map[string]string `json:"errors"`
}

// Pinger pings external service.
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

type subjectPinger struct {
	f func(ctx context.Context) error
	s string
}

func (p subjectPinger) Ping(ctx context.Context) error {
	return p.f(ctx)
}

func (p subjectPinger) Name() string {
	return p.s
}

// SubjectPinger wraps f as a Pinger named s.
func SubjectPinger(s string, f func(ctx context.Context) error) Pinger {
	return subjectPinger{
		f: f,
		s: s,
	}
}

// Handler pings every p in parallel. It responds 503 when any of them fails.
func Handler(timeout time.Duration, p ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			gr errgroup.Group
			mu sync.Mutex
		)

		resp := Response{
			Version: version,
			Commit:  commit,
			Errors:  map[string]string{},
		}

		for i := range p {
			v := p[i]
			gr.Go(func() error {
				if err := v.Ping(ctx); err != nil {
					log.WithError(err).WithField("subject", v.Name()).Error("health check failed")

					mu.Lock()
					resp.Errors[v.Name()] = err.Error()
					mu.Unlock()
				}

				return nil
			})
		}

		_ = gr.Wait()

		if len(resp.Errors) > 0 {
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, resp)
	}
}
