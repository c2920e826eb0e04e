package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/repository"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/internal/storage"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"github.com/mdshare/mdshare/backend/go-services/pkg/metrics"
	"github.com/yuin/goldmark"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Directory resolves principals by email for share-by-email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
}

// ObjectStore receives exported documents.
type ObjectStore interface {
	Put(ctx context.Context, obj storage.Object) error
	PresignDownload(ctx context.Context, key, filename string, expires time.Duration) (string, error)
}

// Options configures a Service. Zero values are usable.
type Options struct {
	// CascadeComments removes a document's comments when it is deleted.
	CascadeComments bool
	// ExportURLTTL bounds presigned export links. Defaults to 15 minutes.
	ExportURLTTL time.Duration
	Directory    Directory
	// Exports is nil when object storage is not configured.
	Exports ObjectStore
	Now     func() time.Time
}

// Service is the document lifecycle: it loads from the store, asks the access
// policy, and then mutates or fails with a typed error.
type Service struct {
	docs      repository.DocumentRepository
	comments  repository.CommentRepository
	dir       Directory
	exports   ObjectStore
	cascade   bool
	exportTTL time.Duration
	validate  *validator.Validate
	md        goldmark.Markdown
	now       func() time.Time
	newID     func() string
}

func New(docs repository.DocumentRepository, comments repository.CommentRepository, opts Options) *Service {
	s := &Service{
		docs:      docs,
		comments:  comments,
		dir:       opts.Directory,
		exports:   opts.Exports,
		cascade:   opts.CascadeComments,
		exportTTL: opts.ExportURLTTL,
		validate:  newValidator(),
		md:        newMarkdown(),
		now:       opts.Now,
		newID:     func() string { return primitive.NewObjectID().Hex() },
	}
	if s.exportTTL <= 0 {
		s.exportTTL = 15 * time.Minute
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repositories.
func NewMemoryService(opts Options) *Service {
	return New(repository.NewMemoryRepo(), repository.NewMemoryCommentRepo(), opts)
}

// NewMongoService returns a Service backed by the "documents" and "comments"
// collections of db. Caller owns the client.
func NewMongoService(db *mongo.Database, opts Options) *Service {
	return New(
		repository.NewMongoRepo(db.Collection("documents")),
		repository.NewMongoCommentRepo(db.Collection("comments")),
		opts,
	)
}

// ExportsEnabled reports whether Export has a destination.
func (s *Service) ExportsEnabled() bool { return s.exports != nil }

func requireCaller(p models.Principal) error {
	if p.ID == "" {
		return document.ErrUnauthenticated
	}
	return nil
}

// loadDocument fetches id, keeping ErrNotFound matchable.
func (s *Service) loadDocument(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return d, nil
}

// deny records a policy refusal for check and returns ErrForbidden.
func (s *Service) deny(check string, caller models.Principal, resource string) error {
	metrics.PolicyDenials.WithLabelValues(check).Inc()
	logger.Debugf("policy: %s denied for %s on %s", check, caller.ID, resource)
	return fmt.Errorf("%w: %s not permitted on %s", document.ErrForbidden, check, resource)
}

func (s *Service) rejectSharing(caller models.Principal, err error) error {
	metrics.PolicyDenials.WithLabelValues("sharing").Inc()
	logger.Debugf("policy: sharing state rejected for %s: %v", caller.ID, err)
	return err
}

// observe counts the outcome of op. Use with a named error result.
func (s *Service) observe(op string, errp *error) {
	outcome := Outcome(*errp)
	metrics.DocumentOperations.WithLabelValues(op, outcome).Inc()
	if outcome == "error" {
		logger.Errorf("document %s failed: %v", op, *errp)
	}
}

// Outcome classifies err into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, document.ErrValidation):
		return "invalid"
	case errors.Is(err, document.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, document.ErrNotFound):
		return "not_found"
	case errors.Is(err, document.ErrForbidden):
		return "forbidden"
	case errors.Is(err, document.ErrPolicyViolation):
		return "policy"
	case errors.Is(err, document.ErrExportUnavailable):
		return "unavailable"
	}
	return "error"
}
