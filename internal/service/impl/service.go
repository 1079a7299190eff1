// Package impl is implementation of service interface.
package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/odyssey/internal/access"
	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/service"
	"github.com/Decentr-net/odyssey/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

// service ...
type srv struct {
	s storage.Storage

	now   func() time.Time
	newID func() string
}

// New creates new instance of service.
func New(s storage.Storage) service.Service {
	return srv{
		s:     s,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// read loads the latest persisted state of the entry and checks that caller can see it.
func (s srv) read(ctx context.Context, caller entities.Caller, id string) (*entities.Entry, error) {
	e, err := s.s.Get(ctx, id)
	if err != nil {
		return nil, wrapStorageError("get entry", err)
	}

	if !access.CanView(e, caller) {
		return nil, fmt.Errorf("%w: entry %s", service.ErrNotFound, id)
	}

	return e, nil
}

func wrapStorageError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: failed to %s", service.ErrNotFound, op)
	}

	return fmt.Errorf("%w: failed to %s on s side: %w", service.ErrStorageUnavailable, op, err)
}

func validateDraft(d service.EntryDraft) (service.EntryDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Location = strings.TrimSpace(d.Location)
	d.Date = strings.TrimSpace(d.Date)
	d.Content = strings.TrimSpace(d.Content)
	d.ImageURL = strings.TrimSpace(d.ImageURL)

	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Location == "" {
		missing = append(missing, "location")
	}
	if d.Date == "" {
		missing = append(missing, "date")
	}
	if d.Content == "" {
		missing = append(missing, "content")
	}

	if len(missing) > 0 {
		return d, fmt.Errorf("%w: %s is required", service.ErrValidation, strings.Join(missing, ", "))
	}

	if _, err := time.Parse(entities.DateLayout, d.Date); err != nil {
		return d, fmt.Errorf("%w: date should be in YYYY-MM-DD format", service.ErrValidation)
	}

	return d, nil
}

func authorName(c entities.Caller) string {
	if c.Name != "" {
		return c.Name
	}

	return c.ID
}
