package server

import (
	"io"
	"net/http"

	"github.com/go-chi/render"
)

func (s server) upload(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /upload Upload UploadFile
	//
	// Stores the uploaded file and returns its public url.
	// The first part with a filename is stored, if there is none the first part is.
	//
	// ---
	// consumes:
	// - multipart/form-data
	// produces:
	// - application/json
	// parameters:
	// - name: file
	//   in: formData
	//   required: true
	//   type: file
	// responses:
	//   '200':
	//     description: Stored file
	//     schema:
	//       "$ref": "#/definitions/UploadResponse"
	//   '400':
	//     description: malformed multipart body
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '413':
	//     description: file is too large
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: storage is not configured
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '503':
	//     description: storage is unavailable
	//     schema:
	//       "$ref": "#/definitions/Error"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadSize))
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	res, err := s.i.Ingest(r.Context(), body, r.Header.Get("Content-Type"))
	if err != nil {
		writeErrorFrom(w, r, err)
		return
	}

	render.JSON(w, r, UploadResponse{
		URL:      res.URL,
		Filename: res.StoredName,
	})
}
