// Package formdata decodes multipart/form-data bodies.
package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
)

// ErrMalformedRequest is returned when the body can't be decoded as multipart form.
var ErrMalformedRequest = errors.New("malformed multipart request")

// Part is a decoded multipart part.
// Parts without FileName are form fields.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

// IsFile ...
func (p Part) IsFile() bool {
	return p.FileName != ""
}

// Decode parses body according to the boundary of contentType.
func Decode(body []byte, contentType string) ([]Part, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid content type: %v", ErrMalformedRequest, err)
	}

	if mediaType != "multipart/form-data" && mediaType != "multipart/mixed" {
		return nil, fmt.Errorf("%w: unexpected content type %s", ErrMalformedRequest, mediaType)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("%w: boundary is missing", ErrMalformedRequest)
	}

	r := multipart.NewReader(bytes.NewReader(body), boundary)

	var parts []Part
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read part: %v", ErrMalformedRequest, err)
		}

		data, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read part %s: %v", ErrMalformedRequest, p.FormName(), err)
		}

		parts = append(parts, Part{
			Name:        p.FormName(),
			FileName:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return parts, nil
}

// SelectFile returns the first part with a filename or the first part when there is no such one.
func SelectFile(parts []Part) (Part, error) {
	if len(parts) == 0 {
		return Part{}, fmt.Errorf("%w: no parts", ErrMalformedRequest)
	}

	selected := parts[0]
	for _, v := range parts {
		if v.IsFile() {
			selected = v
			break
		}
	}

	if len(selected.Data) == 0 {
		return Part{}, fmt.Errorf("%w: file is empty", ErrMalformedRequest)
	}

	return selected, nil
}

// Field returns value of the first form field with the given name.
func Field(parts []Part, name string) string {
	for _, v := range parts {
		if !v.IsFile() && v.Name == name {
			return string(v.Data)
		}
	}

	return ""
}
