package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/Decentr-net/odyssey/internal/blob"
	"github.com/Decentr-net/odyssey/internal/formdata"
	"github.com/Decentr-net/odyssey/internal/service"
)

var errInvalidRequest = errors.New("invalid request")

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Error{Error: message})
}

// writeErrorFrom maps err to a status code. Messages of storage failures are logged and never returned.
func writeErrorFrom(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body is too large")
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, formdata.ErrMalformedRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "caller is not authenticated")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, blob.ErrConfiguration):
		log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("blob store is not configured")
		writeError(w, r, http.StatusInternalServerError, "storage is not configured")
	case errors.Is(err, service.ErrStorageUnavailable), errors.Is(err, blob.ErrUnavailable):
		log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("storage is unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "storage is unavailable")
	default:
		log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("internal error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
