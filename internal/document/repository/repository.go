package repository

import (
	"context"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
)

// ErrNotFound is returned when an id does not resolve. It is the same value as
// document.ErrNotFound so callers can match either.
var ErrNotFound = document.ErrNotFound

// DocumentRepository persists documents.
type DocumentRepository interface {
	Insert(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	// ListOwnedBy returns the documents whose ownerId equals ownerID.
	ListOwnedBy(ctx context.Context, ownerID string) ([]*document.Document, error)
	// ListSharedWith returns documents with sharing enabled that list principalID.
	ListSharedWith(ctx context.Context, principalID string) ([]*document.Document, error)
	// Update replaces title, content, sharing fields and updatedAt. Id, ownerId
	// and createdAt are never written.
	Update(ctx context.Context, d *document.Document) error
	Delete(ctx context.Context, id string) (*document.Document, error)
}

// CommentRepository persists comments keyed by their document.
type CommentRepository interface {
	Insert(ctx context.Context, c *document.Comment) error
	Get(ctx context.Context, documentID, commentID string) (*document.Comment, error)
	ListByDocument(ctx context.Context, documentID string) ([]*document.Comment, error)
	UpdateContent(ctx context.Context, c *document.Comment) error
	Delete(ctx context.Context, documentID, commentID string) (*document.Comment, error)
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}
