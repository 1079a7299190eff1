// Package postgres is implementation of storage interface.
// Entries are kept as JSONB documents; date and insertion sequence are mirrored into columns for ordering.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/storage"
)

const uniqueViolation = "23505"

type pg struct {
	ext sqlx.ExtContext
}

type rowDTO struct {
	ID        string    `db:"id"`
	Date      string    `db:"date"`
	CreatedAt time.Time `db:"created_at"`
	Doc       []byte    `db:"doc"`
}

type commentDTO struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Text       string `json:"text"`
	Date       string `json:"date"`
}

type entryDTO struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Location   string       `json:"location"`
	Date       string       `json:"date"`
	Content    string       `json:"content"`
	ImageURL   string       `json:"imageUrl,omitempty"`
	AuthorID   string       `json:"authorId"`
	AuthorName string       `json:"authorName"`
	IsPrivate  bool         `json:"isPrivate"`
	Likes      []string     `json:"likes"`
	Comments   []commentDTO `json:"comments"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) Ping(ctx context.Context) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return nil
	}

	return db.PingContext(ctx)
}

func (s pg) Create(ctx context.Context, e *entities.Entry) error {
	row, err := toRow(e)
	if err != nil {
		return err
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO entry(id, date, created_at, doc)
			VALUES(:id, :date, :created_at, :doc)
		`, row,
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) Get(ctx context.Context, id string) (*entities.Entry, error) {
	var row rowDTO

	if err := sqlx.GetContext(ctx, s.ext, &row, `
			SELECT id, date, created_at, doc
			FROM entry
			WHERE id = $1
		`,
		id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return fromRow(row)
}

func (s pg) Replace(ctx context.Context, e *entities.Entry) error {
	row, err := toRow(e)
	if err != nil {
		return err
	}

	// created_at column is immutable, only the document carries the value.
	res, err := s.ext.ExecContext(ctx,
		`UPDATE entry SET date=$2, doc=$3 WHERE id=$1`,
		row.ID, row.Date, row.Doc,
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return checkAffected(res)
}

func (s pg) Delete(ctx context.Context, id string) error {
	res, err := s.ext.ExecContext(ctx, `DELETE FROM entry WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return checkAffected(res)
}

func (s pg) ListByDateDesc(ctx context.Context) ([]*entities.Entry, error) {
	var rows []rowDTO

	if err := sqlx.SelectContext(ctx, s.ext, &rows, `
			SELECT id, date, created_at, doc
			FROM entry
			ORDER BY date DESC, seq ASC
		`,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return fromRows(rows)
}

func fromRows(rows []rowDTO) ([]*entities.Entry, error) {
	out := make([]*entities.Entry, len(rows))
	for i, v := range rows {
		e, err := fromRow(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", v.ID, err)
		}
		out[i] = e
	}

	return out, nil
}

// checkAffected returns storage.ErrNotFound when a statement didn't touch any row.
func checkAffected(res sql.Result) error {
	c, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func toRow(e *entities.Entry) (rowDTO, error) {
	doc := entryDTO{
		ID:         e.ID,
		Title:      e.Title,
		Location:   e.Location,
		Date:       e.Date,
		Content:    e.Content,
		ImageURL:   e.ImageURL,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		IsPrivate:  e.IsPrivate,
		Likes:      append(make([]string, 0, len(e.Likes)), e.Likes...),
		Comments:   make([]commentDTO, len(e.Comments)),
		CreatedAt:  e.CreatedAt.UTC(),
	}

	for i, v := range e.Comments {
		doc.Comments[i] = commentDTO{
			ID:         v.ID,
			AuthorID:   v.AuthorID,
			AuthorName: v.AuthorName,
			Text:       v.Text,
			Date:       v.Date,
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return rowDTO{}, fmt.Errorf("failed to marshal document: %w", err)
	}

	return rowDTO{
		ID:        e.ID,
		Date:      e.Date,
		CreatedAt: doc.CreatedAt,
		Doc:       b,
	}, nil
}

func fromRow(row rowDTO) (*entities.Entry, error) {
	var doc entryDTO
	if err := json.Unmarshal(row.Doc, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	e := &entities.Entry{
		ID:         row.ID,
		Title:      doc.Title,
		Location:   doc.Location,
		Date:       doc.Date,
		Content:    doc.Content,
		ImageURL:   doc.ImageURL,
		AuthorID:   doc.AuthorID,
		AuthorName: doc.AuthorName,
		IsPrivate:  doc.IsPrivate,
		Likes:      append(make([]string, 0, len(doc.Likes)), doc.Likes...),
		Comments:   make([]entities.Comment, len(doc.Comments)),
		CreatedAt:  doc.CreatedAt.UTC(),
	}

	for i, v := range doc.Comments {
		e.Comments[i] = entities.Comment{
			ID:         v.ID,
			AuthorID:   v.AuthorID,
			AuthorName: v.AuthorName,
			Text:       v.Text,
			Date:       v.Date,
		}
	}

	return e, nil
}
