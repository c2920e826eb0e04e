package service

import (
	"context"
	"fmt"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/policy"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
)

// LookupUser resolves an email in the principal directory.
func (s *Service) LookupUser(ctx context.Context, caller models.Principal, email string) (p *models.Principal, err error) {
	defer s.observe("lookup_user", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.check(&shareInput{Email: email}); err != nil {
		return nil, err
	}
	return s.findUser(ctx, email)
}

func (s *Service) findUser(ctx context.Context, email string) (*models.Principal, error) {
	if s.dir == nil {
		return nil, fmt.Errorf("user %s: %w", email, document.ErrNotFound)
	}
	p, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("user %s: %w", email, document.ErrNotFound)
	}
	return p, nil
}

// ShareByEmail grants read access to the directory user registered under
// email. Sharing with an existing recipient leaves the document unchanged.
// The read-modify-write is not atomic: concurrent shares are last-write-wins.
func (s *Service) ShareByEmail(ctx context.Context, caller models.Principal, id, email string) (d *document.Document, err error) {
	defer s.observe("share", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.check(&shareInput{Email: email}); err != nil {
		return nil, err
	}
	d, err = s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(caller, d) {
		return nil, s.deny("share", caller, id)
	}
	target, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if target.ID == d.OwnerID {
		return nil, document.NewValidationError("email", "owner already has access")
	}
	if d.AllowSharing && containsPrincipal(d.WhoCanAccess, target.ID) {
		return d, nil
	}

	allow := true
	recipients := append(append([]models.Principal{}, d.WhoCanAccess...), *target)
	state, err := policy.NormalizeSharing(policy.OnUpdate,
		policy.Request{AllowSharing: &allow, WhoCanAccess: recipients, HasWhoCanAccess: true},
		policy.StateOf(d))
	if err != nil {
		return nil, s.rejectSharing(caller, err)
	}
	logger.Infof("document %s shared with %s by %s", id, target.ID, caller.ID)
	return s.persistSharing(ctx, d, state)
}

// Unshare revokes a recipient. Removing the last one turns sharing off.
func (s *Service) Unshare(ctx context.Context, caller models.Principal, id, principalID string) (d *document.Document, err error) {
	defer s.observe("unshare", &err)
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if principalID == "" {
		return nil, document.NewValidationError("userId", "is required")
	}
	d, err = s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(caller, d) {
		return nil, s.deny("unshare", caller, id)
	}
	if !containsPrincipal(d.WhoCanAccess, principalID) {
		return d, nil
	}

	remaining := make([]models.Principal, 0, len(d.WhoCanAccess))
	for _, p := range d.WhoCanAccess {
		if p.ID != principalID {
			remaining = append(remaining, p)
		}
	}
	state, err := policy.NormalizeSharing(policy.OnUpdate,
		policy.Request{WhoCanAccess: remaining, HasWhoCanAccess: true},
		policy.StateOf(d))
	if err != nil {
		return nil, s.rejectSharing(caller, err)
	}
	logger.Infof("document %s unshared from %s by %s", id, principalID, caller.ID)
	return s.persistSharing(ctx, d, state)
}

func containsPrincipal(list []models.Principal, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}
