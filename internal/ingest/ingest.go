// Package ingest accepts multipart uploads and stores them in a blob store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/odyssey/internal/blob"
	"github.com/Decentr-net/odyssey/internal/formdata"
)

// DefaultContentType is used when the uploaded part doesn't declare one.
const DefaultContentType = "application/octet-stream"

const defaultName = "upload"

// maxNameLength limits sanitized original name in bytes.
const maxNameLength = 200

var log = logrus.WithField("layer", "ingest").WithField("package", "ingest")

var knownExtensions = map[string]string{
	DefaultContentType: "",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"image/heic":       ".heic",
	"image/svg+xml":    ".svg",
}

// Result ...
type Result struct {
	URL         string
	StoredName  string
	ContentType string
	Size        int
}

// Service ...
type Service struct {
	open      blob.Opener
	container string

	now   func() time.Time
	token func() string
}

// New creates new instance of Service.
func New(open blob.Opener, container string) *Service {
	return &Service{
		open:      open,
		container: container,
		now:       time.Now,
		token: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Ingest decodes the multipart body and writes the selected file into the container.
// Storage failures are returned as is, the caller decides whether to retry.
func (s *Service) Ingest(ctx context.Context, body []byte, contentType string) (*Result, error) {
	if s.container == "" {
		return nil, fmt.Errorf("%w: container is not set", blob.ErrConfiguration)
	}

	store, err := s.open(ctx)
	if err != nil {
		if errors.Is(err, blob.ErrConfiguration) {
			return nil, fmt.Errorf("failed to open blob store: %w", err)
		}
		return nil, fmt.Errorf("%w: failed to open blob store: %w", blob.ErrUnavailable, err)
	}

	parts, err := formdata.Decode(body, contentType)
	if err != nil {
		return nil, err
	}

	file, err := formdata.SelectFile(parts)
	if err != nil {
		return nil, err
	}

	ct := file.ContentType
	if ct == "" {
		ct = DefaultContentType
	}

	original := file.FileName
	if original == "" {
		original = formdata.Field(parts, "filename")
	}
	name := s.storedName(original, ct)

	if err := store.EnsureContainer(ctx, s.container); err != nil {
		return nil, unavailable("ensure container", err)
	}

	url, err := store.Put(ctx, s.container, name, file.Data, ct)
	if err != nil {
		return nil, unavailable("put blob", err)
	}

	log.WithFields(logrus.Fields{
		"name":         name,
		"size":         len(file.Data),
		"content_type": ct,
	}).Info("file uploaded")

	return &Result{
		URL:         url,
		StoredName:  name,
		ContentType: ct,
		Size:        len(file.Data),
	}, nil
}

func (s *Service) storedName(original, contentType string) string {
	name := sanitize(original)
	if name == "" {
		name = defaultName + extension(contentType)
	}

	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), s.token(), name)
}

func unavailable(op string, err error) error {
	if errors.Is(err, blob.ErrUnavailable) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	return fmt.Errorf("%w: failed to %s: %w", blob.ErrUnavailable, op, err)
}

// sanitize drops directories and control characters from the client supplied filename.
func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' {
			return -1
		}
		return r
	}, name)

	name = strings.TrimSpace(truncate(strings.TrimSpace(name), maxNameLength))
	if name == "." || name == ".." {
		return ""
	}

	return name
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

func extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	if ext, ok := knownExtensions[mediaType]; ok {
		return ext
	}

	if l, err := mime.ExtensionsByType(mediaType); err == nil && len(l) > 0 {
		return l[0]
	}

	return ""
}
