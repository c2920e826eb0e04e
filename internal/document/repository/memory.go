package repository

import (
	"context"
	"sync"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
)

// MemoryRepo is an in-memory DocumentRepository used when MongoDB is not
// configured and in tests. Scans follow insertion order.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []string
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Insert(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[d.ID]; !ok {
		m.order = append(m.order, d.ID)
	}
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListOwnedBy(_ context.Context, ownerID string) ([]*document.Document, error) {
	return m.scan(func(d *document.Document) bool { return d.OwnerID == ownerID }), nil
}

func (m *MemoryRepo) ListSharedWith(_ context.Context, principalID string) ([]*document.Document, error) {
	return m.scan(func(d *document.Document) bool {
		if !d.AllowSharing {
			return false
		}
		for _, p := range d.WhoCanAccess {
			if p.ID == principalID {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryRepo) scan(match func(*document.Document) bool) []*document.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, id := range m.order {
		d := m.store[id]
		if match(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

func (m *MemoryRepo) Update(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[d.ID]
	if !ok {
		return ErrNotFound
	}
	next := cur.Clone()
	next.Title = d.Title
	next.Content = d.Content
	next.AllowSharing = d.AllowSharing
	next.WhoCanAccess = d.Clone().WhoCanAccess
	next.UpdatedAt = d.UpdatedAt
	m.store[d.ID] = next
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return d, nil
}

// MemoryCommentRepo is the in-memory CommentRepository.
type MemoryCommentRepo struct {
	mu       sync.RWMutex
	comments []*document.Comment
}

func NewMemoryCommentRepo() *MemoryCommentRepo {
	return &MemoryCommentRepo{}
}

func (m *MemoryCommentRepo) Insert(_ context.Context, c *document.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *MemoryCommentRepo) Get(_ context.Context, documentID, commentID string) (*document.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.index(documentID, commentID); i >= 0 {
		cp := *m.comments[i]
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryCommentRepo) ListByDocument(_ context.Context, documentID string) ([]*document.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Comment{}
	for _, c := range m.comments {
		if c.DocumentID == documentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryCommentRepo) UpdateContent(_ context.Context, c *document.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(c.DocumentID, c.ID)
	if i < 0 {
		return ErrNotFound
	}
	m.comments[i].Content = c.Content
	m.comments[i].UpdatedAt = c.UpdatedAt
	return nil
}

func (m *MemoryCommentRepo) Delete(_ context.Context, documentID, commentID string) (*document.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(documentID, commentID)
	if i < 0 {
		return nil, ErrNotFound
	}
	c := m.comments[i]
	m.comments = append(m.comments[:i], m.comments[i+1:]...)
	return c, nil
}

func (m *MemoryCommentRepo) DeleteByDocument(_ context.Context, documentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.comments[:0]
	var n int64
	for _, c := range m.comments {
		if c.DocumentID == documentID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.comments = kept
	return n, nil
}

// index must be called with mu held.
func (m *MemoryCommentRepo) index(documentID, commentID string) int {
	for i, c := range m.comments {
		if c.ID == commentID && c.DocumentID == documentID {
			return i
		}
	}
	return -1
}
