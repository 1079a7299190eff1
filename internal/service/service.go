// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"

	"github.com/Decentr-net/odyssey/internal/access"
	"github.com/Decentr-net/odyssey/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

var (
	// ErrValidation is returned when required entry fields are missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the entry doesn't exist or isn't visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when an anonymous caller tries to mutate something.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller isn't allowed to manage the entry.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageUnavailable is returned when the document store fails.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// EntryDraft is a set of entry fields supplied by a client.
type EntryDraft struct {
	Title     string
	Location  string
	Date      string
	Content   string
	ImageURL  string
	IsPrivate bool
}

// Service ...
type Service interface {
	CreateEntry(ctx context.Context, caller entities.Caller, d EntryDraft) (*entities.Entry, error)
	GetEntry(ctx context.Context, caller entities.Caller, id string) (*entities.Entry, error)
	ReplaceEntry(ctx context.Context, caller entities.Caller, id string, d EntryDraft) (*entities.Entry, error)
	DeleteEntry(ctx context.Context, caller entities.Caller, id string) error
	ListEntries(ctx context.Context, caller entities.Caller, mode access.Mode) ([]*entities.Entry, error)

	// ToggleLike, AddComment and DeleteComment are read-modify-write sequences over the whole document.
	// There is no version check between read and write, so concurrent writers of the same entry are last-write-wins.
	ToggleLike(ctx context.Context, caller entities.Caller, entryID string) ([]string, error)
	AddComment(ctx context.Context, caller entities.Caller, entryID, text string) (*entities.Comment, error)
	DeleteComment(ctx context.Context, caller entities.Caller, entryID, commentID string) error
}
