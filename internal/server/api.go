package server

import (
	"time"

	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/service"
)

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// Entry is a journal entry.
// swagger:model
type Entry struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	Date       string    `json:"date"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	IsPrivate  bool      `json:"isPrivate"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment ...
// swagger:model
type Comment struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Text       string `json:"text"`
	Date       string `json:"date"`
}

// EntryRequest contains editable entry fields.
// Other entry fields sent by a client are ignored.
// swagger:model
type EntryRequest struct {
	Title     string `json:"title"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	ImageURL  string `json:"imageUrl"`
	IsPrivate bool   `json:"isPrivate"`
}

// CommentRequest ...
// swagger:model
type CommentRequest struct {
	Text string `json:"text"`
}

// LikesResponse ...
// swagger:model
type LikesResponse struct {
	Likes []string `json:"likes"`
}

// UploadResponse ...
// swagger:model
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (r EntryRequest) toDraft() service.EntryDraft {
	return service.EntryDraft{
		Title:     r.Title,
		Location:  r.Location,
		Date:      r.Date,
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		IsPrivate: r.IsPrivate,
	}
}

func toAPIComment(c entities.Comment) Comment {
	return Comment(c)
}

func toAPIEntry(e *entities.Entry) Entry {
	comments := make([]Comment, len(e.Comments))
	for i, v := range e.Comments {
		comments[i] = toAPIComment(v)
	}

	likes := e.Likes
	if likes == nil {
		likes = []string{}
	}

	return Entry{
		ID:         e.ID,
		Title:      e.Title,
		Location:   e.Location,
		Date:       e.Date,
		Content:    e.Content,
		ImageURL:   e.ImageURL,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		IsPrivate:  e.IsPrivate,
		Likes:      likes,
		Comments:   comments,
		CreatedAt:  e.CreatedAt,
	}
}
