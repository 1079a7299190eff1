package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/storage"
)

func TestToRow_WireShape(t *testing.T) {
	e := &entities.Entry{
		ID:         "1",
		Title:      "Kyoto",
		Location:   "Japan",
		Date:       "2024-04-01",
		Content:    "...",
		ImageURL:   "https://acc.blob.core.windows.net/images/a.png",
		AuthorID:   "u1",
		AuthorName: "Traveler",
		IsPrivate:  true,
		Likes:      []string{"u2"},
		Comments: []entities.Comment{
			{ID: "c1", AuthorID: "u3", AuthorName: "Guest", Text: "Lovely!", Date: "2024-04-02"},
		},
		CreatedAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.FixedZone("JST", 9*3600)),
	}

	row, err := toRow(e)
	require.NoError(t, err)

	assert.Equal(t, "1", row.ID)
	assert.Equal(t, "2024-04-01", row.Date)
	assert.Equal(t, time.UTC, row.CreatedAt.Location())
	assert.JSONEq(t, `{
		"id": "1",
		"title": "Kyoto",
		"location": "Japan",
		"date": "2024-04-01",
		"content": "...",
		"imageUrl": "https://acc.blob.core.windows.net/images/a.png",
		"authorId": "u1",
		"authorName": "Traveler",
		"isPrivate": true,
		"likes": ["u2"],
		"comments": [{"id": "c1", "authorId": "u3", "authorName": "Guest", "text": "Lovely!", "date": "2024-04-02"}],
		"createdAt": "2024-04-01T01:00:00Z"
	}`, string(row.Doc))

	back, err := fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, e.Comments, back.Comments)
	assert.True(t, e.CreatedAt.Equal(back.CreatedAt))
}

func TestToRow_EmptyCollections(t *testing.T) {
	row, err := toRow(&entities.Entry{ID: "1", Date: "2024-04-01"})
	require.NoError(t, err)

	assert.Contains(t, string(row.Doc), `"likes":[]`)
	assert.Contains(t, string(row.Doc), `"comments":[]`)
	assert.NotContains(t, string(row.Doc), `imageUrl`)
}

func TestFromRow_Broken(t *testing.T) {
	_, err := fromRow(rowDTO{ID: "1", Doc: []byte("{")})
	require.Error(t, err)
}

func TestFromRows_Broken(t *testing.T) {
	good, err := toRow(&entities.Entry{ID: "1", Date: "2024-04-01"})
	require.NoError(t, err)

	_, err = fromRows([]rowDTO{good, {ID: "2", Doc: []byte("{")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode document 2")
}

func TestFromRows(t *testing.T) {
	a, err := toRow(&entities.Entry{ID: "1", Date: "2024-04-02"})
	require.NoError(t, err)
	b, err := toRow(&entities.Entry{ID: "2", Date: "2024-04-01"})
	require.NoError(t, err)

	l, err := fromRows([]rowDTO{a, b})
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, "1", l[0].ID)
	assert.Equal(t, "2", l[1].ID)
}

type result struct {
	affected int64
	err      error
}

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.affected, r.err }

func TestCheckAffected(t *testing.T) {
	tt := []struct {
		name string
		res  result
		err  error
	}{
		{name: "updated", res: result{affected: 1}},
		{name: "not_found", res: result{affected: 0}, err: storage.ErrNotFound},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, checkAffected(tc.res), tc.err)
		})
	}
}

func TestCheckAffected_Error(t *testing.T) {
	err := checkAffected(result{err: errors.New("driver does not support")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get affected rows")
}
