package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/internal/storage"
)

const markdownContentType = "text/markdown; charset=utf-8"

// Export is the result of exporting a document to object storage.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Export uploads a readable document as Markdown and returns a presigned link.
func (s *Service) Export(ctx context.Context, caller models.Principal, id string) (out *Export, err error) {
	defer s.observe("export", &err)
	if s.exports == nil {
		return nil, document.ErrExportUnavailable
	}
	d, err := s.readable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	key := ExportKey(d)
	body := []byte(d.Content)
	err = s.exports.Put(ctx, storage.Object{
		Key:         key,
		ContentType: markdownContentType,
		Body:        bytes.NewReader(body),
		Size:        int64(len(body)),
		DocumentID:  d.ID,
		OwnerID:     d.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("upload export %s: %w", key, err)
	}
	url, err := s.exports.PresignDownload(ctx, key, path.Base(key), s.exportTTL)
	if err != nil {
		return nil, fmt.Errorf("presign export %s: %w", key, err)
	}
	return &Export{Key: key, URL: url, ExpiresAt: s.now().Add(s.exportTTL)}, nil
}

// ExportKey is the object key for d: documents/<id>/<slug>.md.
func ExportKey(d *document.Document) string {
	return fmt.Sprintf("documents/%s/%s.md", d.ID, slug(d.Title))
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "document"
	}
	return out
}
