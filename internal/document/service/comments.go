package service

import (
	"context"
	"fmt"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/policy"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

// ListComments returns the comments on a document the caller can read.
func (s *Service) ListComments(ctx context.Context, caller models.Principal, documentID string) (out []*document.Comment, err error) {
	defer s.observe("list_comments", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	d, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(caller, d) {
		return nil, s.deny("comment", caller, documentID)
	}
	out, err = s.comments.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", documentID, err)
	}
	return out, nil
}

// CreateComment posts a comment authored by the caller.
func (s *Service) CreateComment(ctx context.Context, caller models.Principal, documentID string, in CommentInput) (c *document.Comment, err error) {
	defer s.observe("create_comment", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.check(&in); err != nil {
		return nil, err
	}
	d, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(caller, d) {
		return nil, s.deny("comment", caller, documentID)
	}

	now := s.now()
	c = &document.Comment{
		ID:         s.newID(),
		DocumentID: documentID,
		Content:    in.Content,
		Author:     caller,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.comments.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// UpdateComment edits the content of the caller's own comment.
func (s *Service) UpdateComment(ctx context.Context, caller models.Principal, documentID, commentID string, in CommentInput) (c *document.Comment, err error) {
	defer s.observe("update_comment", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if commentID == "" {
		return nil, document.NewValidationError("commentId", "is required")
	}
	if err := s.check(&in); err != nil {
		return nil, err
	}
	d, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(caller, d) {
		return nil, s.deny("comment", caller, documentID)
	}
	c, err = s.loadComment(ctx, documentID, commentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditComment(caller, c) {
		return nil, s.deny("edit_comment", caller, commentID)
	}

	c.Content = in.Content
	c.UpdatedAt = s.now()
	if err := s.comments.UpdateContent(ctx, c); err != nil {
		return nil, fmt.Errorf("update comment %s: %w", commentID, err)
	}
	return c, nil
}

// DeleteComment removes the caller's own comment and returns it.
func (s *Service) DeleteComment(ctx context.Context, caller models.Principal, documentID, commentID string) (c *document.Comment, err error) {
	defer s.observe("delete_comment", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if commentID == "" {
		return nil, document.NewValidationError("commentId", "is required")
	}
	if _, err := s.loadDocument(ctx, documentID); err != nil {
		return nil, err
	}
	c, err = s.loadComment(ctx, documentID, commentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDeleteComment(caller, c) {
		return nil, s.deny("delete_comment", caller, commentID)
	}
	c, err = s.comments.Delete(ctx, documentID, commentID)
	if err != nil {
		return nil, fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	return c, nil
}

func (s *Service) loadComment(ctx context.Context, documentID, commentID string) (*document.Comment, error) {
	c, err := s.comments.Get(ctx, documentID, commentID)
	if err != nil {
		return nil, fmt.Errorf("load comment %s: %w", commentID, err)
	}
	return c, nil
}
