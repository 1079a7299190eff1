package impl

import (
	"context"
	"errors"
	"fmt"

	"github.com/Decentr-net/odyssey/internal/access"
	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/service"
	"github.com/Decentr-net/odyssey/internal/storage"
)

func (s srv) CreateEntry(ctx context.Context, caller entities.Caller, d service.EntryDraft) (*entities.Entry, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("%w: authorId is required", service.ErrValidation)
	}

	d, err := validateDraft(d)
	if err != nil {
		return nil, err
	}

	e := &entities.Entry{
		ID:         s.newID(),
		Title:      d.Title,
		Location:   d.Location,
		Date:       d.Date,
		Content:    d.Content,
		ImageURL:   d.ImageURL,
		AuthorID:   caller.ID,
		AuthorName: authorName(caller),
		IsPrivate:  d.IsPrivate,
		Likes:      []string{},
		Comments:   []entities.Comment{},
		CreatedAt:  s.now().UTC(),
	}

	if err := s.s.Create(ctx, e); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: failed to create entry: id collision", service.ErrStorageUnavailable)
		}
		return nil, wrapStorageError("create entry", err)
	}

	return e, nil
}

func (s srv) GetEntry(ctx context.Context, caller entities.Caller, id string) (*entities.Entry, error) {
	return s.read(ctx, caller, id)
}

func (s srv) ReplaceEntry(ctx context.Context, caller entities.Caller, id string, d service.EntryDraft) (*entities.Entry, error) {
	current, err := s.read(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if !access.CanManage(current, caller) {
		return nil, fmt.Errorf("%w: only author or admin can edit entry", service.ErrForbidden)
	}

	d, err = validateDraft(d)
	if err != nil {
		return nil, err
	}

	// likes and comments are owned by social operations, so they're taken from the persisted state.
	e := current.Clone()
	e.Title = d.Title
	e.Location = d.Location
	e.Date = d.Date
	e.Content = d.Content
	e.ImageURL = d.ImageURL
	e.IsPrivate = d.IsPrivate

	if err := s.s.Replace(ctx, e); err != nil {
		return nil, wrapStorageError("replace entry", err)
	}

	return e, nil
}

func (s srv) DeleteEntry(ctx context.Context, caller entities.Caller, id string) error {
	current, err := s.read(ctx, caller, id)
	if err != nil {
		return err
	}

	if !access.CanManage(current, caller) {
		return fmt.Errorf("%w: only author or admin can delete entry", service.ErrForbidden)
	}

	if err := s.s.Delete(ctx, id); err != nil {
		return wrapStorageError("delete entry", err)
	}

	return nil
}

func (s srv) ListEntries(ctx context.Context, caller entities.Caller, mode access.Mode) ([]*entities.Entry, error) {
	l, err := s.s.ListByDateDesc(ctx)
	if err != nil {
		return nil, wrapStorageError("list entries", err)
	}

	return access.VisibleSet(l, caller, mode), nil
}
