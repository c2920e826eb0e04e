package service

import (
	"context"
	"fmt"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/policy"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
)

// List returns the documents the caller owns followed by those shared with
// them, each once, in store order.
func (s *Service) List(ctx context.Context, caller models.Principal) (out []*document.Document, err error) {
	defer s.observe("list", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	owned, err := s.docs.ListOwnedBy(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list owned documents: %w", err)
	}
	shared, err := s.docs.ListSharedWith(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list shared documents: %w", err)
	}

	out = make([]*document.Document, 0, len(owned)+len(shared))
	seen := make(map[string]struct{}, len(owned)+len(shared))
	for _, batch := range [][]*document.Document{owned, shared} {
		for _, d := range batch {
			if _, dup := seen[d.ID]; dup || !policy.Visible(caller, d) {
				continue
			}
			seen[d.ID] = struct{}{}
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller models.Principal, id string) (d *document.Document, err error) {
	defer s.observe("get", &err)
	return s.readable(ctx, caller, id)
}

// readable loads id and checks the caller may read it.
func (s *Service) readable(ctx context.Context, caller models.Principal, id string) (*document.Document, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	d, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(caller, d) {
		return nil, s.deny("read", caller, id)
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, caller models.Principal, in DocumentInput) (d *document.Document, err error) {
	defer s.observe("create", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.checkDocument(&in); err != nil {
		return nil, err
	}
	state, err := policy.NormalizeSharing(policy.OnCreate, in.sharingRequest(), policy.StateOf(nil))
	if err != nil {
		return nil, s.rejectSharing(caller, err)
	}

	now := s.now()
	d = &document.Document{
		ID:           s.newID(),
		Title:        in.Title,
		Content:      *in.Content,
		OwnerID:      caller.ID,
		AllowSharing: state.AllowSharing,
		WhoCanAccess: state.WhoCanAccess,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.docs.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	logger.Infof("document %s created by %s (sharing=%v recipients=%d)", d.ID, caller.ID, d.AllowSharing, len(d.WhoCanAccess))
	return d, nil
}

// Update replaces title, content and the normalized sharing state. The
// returned record is what was persisted, not the request.
func (s *Service) Update(ctx context.Context, caller models.Principal, id string, in DocumentInput) (d *document.Document, err error) {
	defer s.observe("update", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.checkDocument(&in); err != nil {
		return nil, err
	}
	existing, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(caller, existing) {
		return nil, s.deny("write", caller, id)
	}
	state, err := policy.NormalizeSharing(policy.OnUpdate, in.sharingRequest(), policy.StateOf(existing))
	if err != nil {
		return nil, s.rejectSharing(caller, err)
	}

	d = existing.Clone()
	d.Title = in.Title
	d.Content = *in.Content
	return s.persistSharing(ctx, d, state)
}

// Delete removes a document the caller owns and, when configured, its comments.
func (s *Service) Delete(ctx context.Context, caller models.Principal, id string) (d *document.Document, err error) {
	defer s.observe("delete", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	existing, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(caller, existing) {
		return nil, s.deny("delete", caller, id)
	}
	d, err = s.docs.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete document %s: %w", id, err)
	}
	if s.cascade {
		n, err := s.comments.DeleteByDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("delete comments of %s: %w", id, err)
		}
		logger.Debugf("document %s deleted with %d comments", id, n)
	}
	return d, nil
}

// persistSharing writes d with state applied and a fresh updatedAt.
func (s *Service) persistSharing(ctx context.Context, d *document.Document, state policy.State) (*document.Document, error) {
	d.AllowSharing = state.AllowSharing
	d.WhoCanAccess = state.WhoCanAccess
	d.UpdatedAt = s.now()
	if err := s.docs.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update document %s: %w", d.ID, err)
	}
	return d, nil
}
