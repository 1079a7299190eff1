package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Decentr-net/odyssey/internal/access"
	"github.com/Decentr-net/odyssey/internal/blob"
	"github.com/Decentr-net/odyssey/internal/blob/memory"
	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/ingest"
	mm "github.com/Decentr-net/odyssey/internal/middleware"
	"github.com/Decentr-net/odyssey/internal/service"
	"github.com/Decentr-net/odyssey/internal/service/mock"
)

var (
	author = entities.Caller{ID: "u1", Name: "Author"}

	testEntry = &entities.Entry{
		ID:         "1",
		Title:      "Kyoto",
		Location:   "Japan",
		Date:       "2024-04-01",
		Content:    "...",
		AuthorID:   "u1",
		AuthorName: "Author",
		Likes:      []string{"u2"},
		Comments: []entities.Comment{
			{ID: "c1", AuthorID: "u3", AuthorName: "Traveler", Text: "Lovely!", Date: "2024-04-01"},
		},
		CreatedAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
	}

	testEntryJSON = `{
		"id": "1",
		"title": "Kyoto",
		"location": "Japan",
		"date": "2024-04-01",
		"content": "...",
		"authorId": "u1",
		"authorName": "Author",
		"isPrivate": false,
		"likes": ["u2"],
		"comments": [{"id": "c1", "authorId": "u3", "authorName": "Traveler", "text": "Lovely!", "date": "2024-04-01"}],
		"createdAt": "2024-04-01T10:00:00Z"
	}`
)

func newRouter(s service.Service, i Ingester) chi.Router {
	r := chi.NewRouter()
	SetupRouter(r, s, i, Options{MaxBodySize: 1024, MaxUploadSize: 1024})
	return r
}

func as(r *http.Request, c entities.Caller) *http.Request {
	if c.ID != "" {
		r.Header.Set(mm.UserIDHeader, c.ID)
		r.Header.Set(mm.UserNameHeader, c.Name)
	}
	if c.IsAdmin {
		r.Header.Set(mm.UserAdminHeader, "true")
	}
	return r
}

func serve(router http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func Test_listEntries(t *testing.T) {
	tt := []struct {
		name  string
		query string
		mode  access.Mode
		err   error

		code int
		body string
	}{
		{name: "default", query: "", mode: access.ModeFeed, code: http.StatusOK, body: "[" + testEntryJSON + "]"},
		{name: "feed", query: "?mode=feed", mode: access.ModeFeed, code: http.StatusOK, body: "[" + testEntryJSON + "]"},
		{name: "dashboard", query: "?mode=dashboard", mode: access.ModeDashboard, code: http.StatusOK, body: "[" + testEntryJSON + "]"},
		{name: "unknown mode", query: "?mode=all", code: http.StatusBadRequest},
		{
			name:  "storage failure",
			query: "",
			mode:  access.ModeFeed,
			err:   fmt.Errorf("%w: dial tcp 10.0.0.1:5432: password=secret", service.ErrStorageUnavailable),
			code:  http.StatusServiceUnavailable,
			body:  `{"error": "storage is unavailable"}`,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			s := mock.NewMockService(ctrl)

			if tc.mode != "" {
				s.EXPECT().ListEntries(gomock.Any(), author, tc.mode).Return([]*entities.Entry{testEntry}, tc.err)
			}

			r := as(httptest.NewRequest(http.MethodGet, "/journals"+tc.query, nil), author)
			w := serve(newRouter(s, nil), r)

			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}

func Test_getEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockService(ctrl)
	router := newRouter(s, nil)

	s.EXPECT().GetEntry(gomock.Any(), entities.Caller{}, "1").Return(testEntry, nil)
	w := serve(router, httptest.NewRequest(http.MethodGet, "/journals/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, testEntryJSON, w.Body.String())

	s.EXPECT().GetEntry(gomock.Any(), entities.Caller{}, "2").Return(nil, fmt.Errorf("%w: entry 2", service.ErrNotFound))
	w = serve(router, httptest.NewRequest(http.MethodGet, "/journals/2/", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error": "not found"}`, w.Body.String())
}

func Test_createEntry(t *testing.T) {
	tt := []struct {
		name   string
		caller entities.Caller
		body   string
		call   bool
		err    error

		code int
	}{
		{
			name:   "created",
			caller: author,
			body:   `{"title":"Kyoto","location":"Japan","date":"2024-04-01","content":"...","likes":["forged"]}`,
			call:   true,
			code:   http.StatusCreated,
		},
		{
			name:   "validation",
			caller: author,
			body:   `{"title":"Kyoto"}`,
			call:   true,
			err:    fmt.Errorf("%w: location is required", service.ErrValidation),
			code:   http.StatusBadRequest,
		},
		{
			name:   "invalid json",
			caller: author,
			body:   `{"title":`,
			code:   http.StatusBadRequest,
		},
		{
			name:   "too large",
			caller: author,
			body:   `{"content":"` + strings.Repeat("a", 2048) + `"}`,
			code:   http.StatusRequestEntityTooLarge,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			s := mock.NewMockService(ctrl)

			if tc.call {
				s.EXPECT().CreateEntry(gomock.Any(), tc.caller, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ entities.Caller, d service.EntryDraft) (*entities.Entry, error) {
						assert.Equal(t, "Kyoto", d.Title)
						if tc.err != nil {
							return nil, tc.err
						}
						return testEntry, nil
					})
			}

			r := as(httptest.NewRequest(http.MethodPost, "/journals", strings.NewReader(tc.body)), tc.caller)
			w := serve(newRouter(s, nil), r)

			require.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusCreated {
				require.JSONEq(t, testEntryJSON, w.Body.String())
			}
		})
	}
}

func Test_replaceEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockService(ctrl)
	router := newRouter(s, nil)

	body := `{"title":"Kyoto","location":"Japan","date":"2024-04-01","content":"...","imageUrl":"https://img/1.jpg","isPrivate":true}`

	s.EXPECT().ReplaceEntry(gomock.Any(), author, "1", service.EntryDraft{
		Title:     "Kyoto",
		Location:  "Japan",
		Date:      "2024-04-01",
		Content:   "...",
		ImageURL:  "https://img/1.jpg",
		IsPrivate: true,
	}).Return(testEntry, nil)

	w := serve(router, as(httptest.NewRequest(http.MethodPut, "/journals/1", strings.NewReader(body)), author))
	require.Equal(t, http.StatusOK, w.Code)

	other := entities.Caller{ID: "u2", Name: "Other"}
	s.EXPECT().ReplaceEntry(gomock.Any(), other, "1", gomock.Any()).Return(nil, service.ErrForbidden)

	w = serve(router, as(httptest.NewRequest(http.MethodPut, "/journals/1", strings.NewReader(body)), other))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func Test_deleteEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockService(ctrl)
	router := newRouter(s, nil)

	s.EXPECT().DeleteEntry(gomock.Any(), author, "1").Return(nil)
	w := serve(router, as(httptest.NewRequest(http.MethodDelete, "/journals/1", nil), author))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	s.EXPECT().DeleteEntry(gomock.Any(), author, "1").Return(service.ErrNotFound)
	w = serve(router, as(httptest.NewRequest(http.MethodDelete, "/journals/1", nil), author))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func Test_social(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockService(ctrl)
	router := newRouter(s, nil)

	s.EXPECT().ToggleLike(gomock.Any(), author, "1").Return([]string{}, nil)
	w := serve(router, as(httptest.NewRequest(http.MethodPost, "/journals/1/likes", nil), author))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"likes": []}`, w.Body.String())

	s.EXPECT().ToggleLike(gomock.Any(), entities.Caller{}, "1").Return(nil, service.ErrUnauthenticated)
	w = serve(router, httptest.NewRequest(http.MethodPost, "/journals/1/likes", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	s.EXPECT().AddComment(gomock.Any(), author, "1", "Lovely!").Return(&testEntry.Comments[0], nil)
	w = serve(router, as(httptest.NewRequest(http.MethodPost, "/journals/1/comments", strings.NewReader(`{"text":"Lovely!"}`)), author))
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"id": "c1", "authorId": "u3", "authorName": "Traveler", "text": "Lovely!", "date": "2024-04-01"}`, w.Body.String())

	s.EXPECT().DeleteComment(gomock.Any(), author, "1", "c1").Return(nil)
	w = serve(router, as(httptest.NewRequest(http.MethodDelete, "/journals/1/comments/c1", nil), author))
	require.Equal(t, http.StatusNoContent, w.Code)

	s.EXPECT().DeleteComment(gomock.Any(), author, "404", "c1").Return(service.ErrNotFound)
	w = serve(router, as(httptest.NewRequest(http.MethodDelete, "/journals/404/comments/c1", nil), author))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &b, w.FormDataContentType()
}

func Test_upload(t *testing.T) {
	store := memory.New("http://localhost/blobs")
	router := newRouter(nil, ingest.New(store.Opener(), "photos"))

	body, ct := multipartBody(t, "kyoto.jpg", []byte("jpeg"))
	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", ct)

	w := serve(router, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"url":"http://localhost/blobs/photos/`)
	require.Contains(t, w.Body.String(), `-kyoto.jpg"`)
}

func Test_upload_ServedFromMemory(t *testing.T) {
	store := memory.New("http://localhost/blobs")
	router := newRouter(nil, ingest.New(store.Opener(), "photos"))
	store.Mount(router)

	body, ct := multipartBody(t, "kyoto trip.jpg", []byte("jpeg"))
	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", ct)

	w := serve(router, r)
	require.Equal(t, http.StatusOK, w.Code)

	var res UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	u, err := url.Parse(res.URL)
	require.NoError(t, err)

	w = serve(router, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, ingest.DefaultContentType, w.Header().Get("Content-Type"))
	require.Equal(t, "jpeg", w.Body.String())

	w = serve(router, httptest.NewRequest(http.MethodGet, "/blobs/photos/missing.jpg", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func Test_upload_Errors(t *testing.T) {
	store := memory.New("http://localhost/blobs")

	unconfigured := ingest.New(func(context.Context) (blob.Store, error) {
		return nil, fmt.Errorf("%w: AccountName is missing", blob.ErrConfiguration)
	}, "photos")

	tt := []struct {
		name     string
		ingester Ingester
		data     []byte
		ct       string

		code int
		body string
	}{
		{name: "no boundary", ingester: ingest.New(store.Opener(), "photos"), data: []byte("jpeg"), ct: "multipart/form-data", code: http.StatusBadRequest},
		{name: "too large", ingester: ingest.New(store.Opener(), "photos"), data: bytes.Repeat([]byte("a"), 2048), code: http.StatusRequestEntityTooLarge},
		{name: "not configured", ingester: unconfigured, data: []byte("jpeg"), code: http.StatusInternalServerError, body: `{"error": "storage is not configured"}`},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, "kyoto.jpg", tc.data)
			if tc.ct != "" {
				ct = tc.ct
			}

			r := httptest.NewRequest(http.MethodPost, "/upload", body)
			r.Header.Set("Content-Type", ct)

			w := serve(newRouter(nil, tc.ingester), r)
			require.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}
