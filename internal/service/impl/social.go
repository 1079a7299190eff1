package impl

import (
	"context"
	"fmt"
	"strings"

	"github.com/Decentr-net/odyssey/internal/access"
	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/service"
)

// Social operations re-read the entry right before writing it back and never take likes or comments from a caller.
// The gap between read and write is not guarded, see service.Service.

func (s srv) ToggleLike(ctx context.Context, caller entities.Caller, entryID string) ([]string, error) {
	if caller.IsAnonymous() {
		return nil, service.ErrUnauthenticated
	}

	e, err := s.read(ctx, caller, entryID)
	if err != nil {
		return nil, err
	}

	e.Likes = toggle(e.Likes, caller.ID)

	if err := s.s.Replace(ctx, e); err != nil {
		return nil, wrapStorageError("replace entry", err)
	}

	log.WithField("entry", entryID).WithField("liked", e.HasLike(caller.ID)).Debug("like toggled")

	return e.Likes, nil
}

func (s srv) AddComment(ctx context.Context, caller entities.Caller, entryID, text string) (*entities.Comment, error) {
	if caller.IsAnonymous() {
		return nil, service.ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", service.ErrValidation)
	}

	e, err := s.read(ctx, caller, entryID)
	if err != nil {
		return nil, err
	}

	c := entities.Comment{
		ID:         s.newID(),
		AuthorID:   caller.ID,
		AuthorName: authorName(caller),
		Text:       text,
		Date:       s.now().UTC().Format(entities.DateLayout),
	}
	e.Comments = append(e.Comments, c)

	if err := s.s.Replace(ctx, e); err != nil {
		return nil, wrapStorageError("replace entry", err)
	}

	return &c, nil
}

func (s srv) DeleteComment(ctx context.Context, caller entities.Caller, entryID, commentID string) error {
	if caller.IsAnonymous() {
		return service.ErrUnauthenticated
	}

	e, err := s.read(ctx, caller, entryID)
	if err != nil {
		return err
	}

	comments := make([]entities.Comment, 0, len(e.Comments))
	for _, v := range e.Comments {
		if v.ID != commentID {
			comments = append(comments, v)
			continue
		}

		if v.AuthorID != caller.ID && !access.CanManage(e, caller) {
			return fmt.Errorf("%w: only comment author, entry author or admin can delete comment", service.ErrForbidden)
		}
	}

	// comment may be already deleted; the entry is rewritten anyway
	e.Comments = comments

	if err := s.s.Replace(ctx, e); err != nil {
		return wrapStorageError("replace entry", err)
	}

	return nil
}

// toggle removes userID from likes if it's present, otherwise appends it.
func toggle(likes []string, userID string) []string {
	out := make([]string, 0, len(likes)+1)
	found := false

	for _, v := range likes {
		if v == userID {
			found = true
			continue
		}
		out = append(out, v)
	}

	if !found {
		out = append(out, userID)
	}

	return out
}
