package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

type fakeRepo struct {
	lastUpsert *models.User
	upsertErr  error
	byEmail    map[string]*models.User
	emailErr   error
}

func (f *fakeRepo) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	f.lastUpsert = u
	now := time.Now().UTC()
	if f.lastUpsert.CreatedAt.IsZero() {
		f.lastUpsert.CreatedAt = now
	}
	f.lastUpsert.UpdatedAt = now
	ret := *f.lastUpsert
	ret.ID = "abcd1234"
	return &ret, f.upsertErr
}

func (f *fakeRepo) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return nil, nil
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.emailErr != nil {
		return nil, f.emailErr
	}
	return f.byEmail[email], nil
}

func TestUpsertFromClaims(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	claims := map[string]interface{}{
		"sub":   "sub-123",
		"email": " X@Example.com ",
		"name":  "X User",
	}

	u, err := svc.UpsertFromClaims(ctx, claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Sub != "sub-123" {
		t.Fatalf("unexpected sub: %s", u.Sub)
	}
	if u.Email != "x@example.com" {
		t.Fatalf("email should be normalized, got: %s", u.Email)
	}
	if u.Name != "X User" {
		t.Fatalf("unexpected name: %s", u.Name)
	}
	if u.ID == "" {
		t.Fatalf("expected returned user to have an ID set by repo")
	}

	// missing sub => nothing recorded
	u2, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"email": "y@e.com"})
	if err != nil {
		t.Fatalf("unexpected error on missing sub: %v", err)
	}
	if u2 != nil {
		t.Fatalf("expected nil when sub missing, got: %v", u2)
	}
}

func TestFindByEmail(t *testing.T) {
	repo := &fakeRepo{byEmail: map[string]*models.User{
		"bob@example.com": {ID: "1", Sub: "bob", Name: "Bob", Email: "bob@example.com"},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.FindByEmail(ctx, "  BOB@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.ID != "bob" || p.Email != "bob@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}

	p, err = svc.FindByEmail(ctx, "nobody@example.com")
	if err != nil || p != nil {
		t.Fatalf("expected (nil, nil) for unknown email, got %+v, %v", p, err)
	}

	repo.emailErr = errors.New("db down")
	if _, err := svc.FindByEmail(ctx, "bob@example.com"); err == nil {
		t.Fatalf("expected repository error to propagate")
	}
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Remember(ctx, models.Principal{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	if err != nil || first == nil {
		t.Fatalf("remember failed: %v", err)
	}
	second, err := svc.Remember(ctx, models.Principal{ID: "u1", Name: "Ann B", Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("createdAt must survive upsert")
	}
	if second.Name != "Ann B" {
		t.Fatalf("name not refreshed: %s", second.Name)
	}

	p, err := svc.FindByEmail(ctx, "ann@example.com")
	if err != nil || p == nil || p.ID != "u1" {
		t.Fatalf("lookup failed: %+v %v", p, err)
	}
	got, _ := svc.GetBySub(ctx, "u1")
	if got == nil || got.Email != "ann@example.com" {
		t.Fatalf("GetBySub failed: %+v", got)
	}
}
