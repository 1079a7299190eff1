package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Decentr-net/odyssey/internal/access"
	mm "github.com/Decentr-net/odyssey/internal/middleware"
)

func (s server) listEntries(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /journals Journals ListEntries
	//
	// Returns entries visible to the caller ordered by date descending.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: mode
	//   description: feed returns every visible entry, dashboard returns the caller's own entries (all entries for admin)
	//   in: query
	//   required: false
	//   default: feed
	//   type: string
	//   enum: [feed, dashboard]
	// responses:
	//   '200':
	//     description: Entries
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Entry"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '503':
	//     description: storage is unavailable
	//     schema:
	//       "$ref": "#/definitions/Error"

	mode := access.ModeFeed
	switch v := r.URL.Query().Get("mode"); v {
	case "", string(access.ModeFeed):
	case string(access.ModeDashboard):
		mode = access.ModeDashboard
	default:
		writeErrorFrom(w, r, fmt.Errorf("%w: unknown mode %q", errInvalidRequest, v))
		return
	}

	l, err := s.s.ListEntries(r.Context(), mm.GetCaller(r.Context()), mode)
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	out := make([]Entry, len(l))
	for i, v := range l {
		out[i] = toAPIEntry(v)
	}

	render.JSON(w, r, out)
}

func (s server) getEntry(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /journals/{id} Journals GetEntry
	//
	// Returns a single entry. Private entries of others are reported as missing.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Entry
	//     schema:
	//       "$ref": "#/definitions/Entry"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	e, err := s.s.GetEntry(r.Context(), mm.GetCaller(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	render.JSON(w, r, toAPIEntry(e))
}

func (s server) createEntry(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /journals Journals CreateEntry
	//
	// Creates an entry authored by the caller.
	//
	// ---
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/EntryRequest"
	// responses:
	//   '201':
	//     description: Created entry
	//     schema:
	//       "$ref": "#/definitions/Entry"
	//   '400':
	//     description: validation failed
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req EntryRequest
	if err := s.decode(w, r, &req); err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	e, err := s.s.CreateEntry(r.Context(), mm.GetCaller(r.Context()), req.toDraft())
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toAPIEntry(e))
}

func (s server) replaceEntry(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /journals/{id} Journals ReplaceEntry
	//
	// Replaces editable fields of the entry. Likes and comments are kept as stored.
	//
	// ---
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/EntryRequest"
	// responses:
	//   '200':
	//     description: Updated entry
	//     schema:
	//       "$ref": "#/definitions/Entry"
	//   '400':
	//     description: validation failed
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '403':
	//     description: caller is neither the author nor admin
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req EntryRequest
	if err := s.decode(w, r, &req); err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	e, err := s.s.ReplaceEntry(r.Context(), mm.GetCaller(r.Context()), chi.URLParam(r, "id"), req.toDraft())
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	render.JSON(w, r, toAPIEntry(e))
}

func (s server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /journals/{id} Journals DeleteEntry
	//
	// Deletes the entry with its likes and comments.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: Deleted
	//   '403':
	//     description: caller is neither the author nor admin
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	if err := s.s.DeleteEntry(r.Context(), mm.GetCaller(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) toggleLike(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /journals/{id}/likes Social ToggleLike
	//
	// Likes the entry or removes the caller's like.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Resulting likes
	//     schema:
	//       "$ref": "#/definitions/LikesResponse"
	//   '401':
	//     description: caller is not authenticated
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	likes, err := s.s.ToggleLike(r.Context(), mm.GetCaller(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	if likes == nil {
		likes = []string{}
	}

	render.JSON(w, r, LikesResponse{Likes: likes})
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /journals/{id}/comments Social AddComment
	//
	// Appends a comment authored by the caller.
	//
	// ---
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/CommentRequest"
	// responses:
	//   '201':
	//     description: Created comment
	//     schema:
	//       "$ref": "#/definitions/Comment"
	//   '400':
	//     description: empty text
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '401':
	//     description: caller is not authenticated
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CommentRequest
	if err := s.decode(w, r, &req); err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	c, err := s.s.AddComment(r.Context(), mm.GetCaller(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toAPIComment(*c))
}

func (s server) deleteComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /journals/{id}/comments/{commentId} Social DeleteComment
	//
	// Removes the comment. Removing an already missing comment succeeds.
	//
	// ---
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// - name: commentId
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '204':
	//     description: Deleted
	//   '401':
	//     description: caller is not authenticated
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '403':
	//     description: caller is not allowed to delete the comment
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: entry not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	caller := mm.GetCaller(r.Context())
	if err := s.s.DeleteComment(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "commentId")); err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)

	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid json", errInvalidRequest)
	}

	return nil
}
