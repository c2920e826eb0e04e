package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

// Service is the principal directory: who has signed in, findable by email.
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Remember records (or refreshes) the directory entry for an authenticated principal.
func (s *Service) Remember(ctx context.Context, p models.Principal) (*models.User, error) {
	if p.ID == "" {
		return nil, nil
	}
	u := &models.User{Sub: p.ID, Email: normalizeEmail(p.Email), Name: p.Name}
	return s.repo.UpsertBySub(ctx, u)
}

// UpsertFromClaims creates or updates a user using a verified claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	p, ok := models.PrincipalFromClaims(claims)
	if !ok {
		return nil, nil
	}
	return s.Remember(ctx, p)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// FindByEmail looks up a principal summary by email (case-insensitive).
// It returns (nil, nil) when no directory entry matches.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	p := u.Summary()
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
