// Package entities contains main entities of service.
package entities

import (
	"time"
)

// DateLayout is a layout of calendar dates used by entries and comments.
const DateLayout = "2006-01-02"

// Entry is a journal entry owned by its author.
type Entry struct {
	ID         string
	Title      string
	Location   string
	Date       string
	Content    string
	ImageURL   string
	AuthorID   string
	AuthorName string
	IsPrivate  bool
	Likes      []string
	Comments   []Comment
	CreatedAt  time.Time
}

// Comment ...
type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string
	Date       string
}

// Caller is an identity of the one who performs a request.
// Zero value is an anonymous caller.
type Caller struct {
	ID      string
	Name    string
	IsAdmin bool
}

// IsAnonymous returns true if caller has no identity.
func (c Caller) IsAnonymous() bool {
	return c.ID == ""
}

// HasLike returns true if user liked the entry.
func (e *Entry) HasLike(userID string) bool {
	for _, v := range e.Likes {
		if v == userID {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}

	c := *e
	c.Likes = append(make([]string, 0, len(e.Likes)), e.Likes...)
	c.Comments = append(make([]Comment, 0, len(e.Comments)), e.Comments...)

	return &c
}
