package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// newMarkdown renders GitHub-flavoured Markdown. Raw HTML in documents is
// omitted from the output (goldmark's default without html.WithUnsafe).
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// Preview renders a readable document to HTML.
func (s *Service) Preview(ctx context.Context, caller models.Principal, id string) (html string, err error) {
	defer s.observe("preview", &err)
	d, err := s.readable(ctx, caller, id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(d.Content), &buf); err != nil {
		return "", fmt.Errorf("render document %s: %w", id, err)
	}
	return buf.String(), nil
}
