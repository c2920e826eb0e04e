// Package policy decides who may read, write, comment on and share a document.
// Every function is pure: no I/O, no mutation of its arguments.
package policy

import (
	"fmt"

	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

// CanRead reports whether p may read d: the owner always can, anyone else only
// while sharing is enabled and they are listed in whoCanAccess.
func CanRead(p models.Principal, d *document.Document) bool {
	if d == nil || p.ID == "" {
		return false
	}
	if p.ID == d.OwnerID {
		return true
	}
	return d.AllowSharing && contains(d.WhoCanAccess, p.ID)
}

// CanWrite reports whether p may update, delete or change sharing of d.
// Sharing grants read access only.
func CanWrite(p models.Principal, d *document.Document) bool {
	if d == nil || p.ID == "" {
		return false
	}
	return p.ID == d.OwnerID
}

// CanComment is identical to CanRead.
func CanComment(p models.Principal, d *document.Document) bool {
	return CanRead(p, d)
}

// CanDeleteComment reports whether p authored c.
func CanDeleteComment(p models.Principal, c *document.Comment) bool {
	if c == nil || p.ID == "" {
		return false
	}
	return p.ID == c.Author.ID
}

// CanEditComment follows the same author-only rule as deletion.
func CanEditComment(p models.Principal, c *document.Comment) bool {
	return CanDeleteComment(p, c)
}

// Visible is the list filter: a document appears in p's listing iff p can read it.
func Visible(p models.Principal, d *document.Document) bool {
	return CanRead(p, d)
}

// Operation selects the recipient threshold applied by NormalizeSharing.
type Operation int

const (
	// OnCreate rejects two or more recipients without sharing enabled.
	OnCreate Operation = iota
	// OnUpdate rejects any recipient without sharing enabled.
	OnUpdate
)

func (o Operation) String() string {
	switch o {
	case OnCreate:
		return "create"
	case OnUpdate:
		return "update"
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// maxRecipientsWithoutSharing is the largest whoCanAccess length accepted
// while the request leaves sharing disabled.
func (o Operation) maxRecipientsWithoutSharing() int {
	if o == OnCreate {
		return 1
	}
	return 0
}

// State is the pair of sharing fields stored on a document.
type State struct {
	AllowSharing bool
	WhoCanAccess []models.Principal
}

// StateOf extracts the sharing state of d.
func StateOf(d *document.Document) State {
	if d == nil {
		return State{WhoCanAccess: []models.Principal{}}
	}
	return State{AllowSharing: d.AllowSharing, WhoCanAccess: d.WhoCanAccess}
}

// Request carries the sharing fields of a mutation. A nil field was omitted.
type Request struct {
	AllowSharing *bool
	WhoCanAccess []models.Principal
	// HasWhoCanAccess distinguishes an omitted list from an explicit empty one.
	HasWhoCanAccess bool
}

// NormalizeSharing computes the sharing state a mutation must persist.
//
// The requested flag falls back to the existing one when omitted. When that flag
// is false and the request lists more recipients than op allows, the mutation is
// rejected with document.ErrPolicyViolation. Otherwise the result keeps the
// existing list when none was supplied, drops duplicate ids, and never has
// sharing enabled with an empty list nor recipients with sharing disabled.
func NormalizeSharing(op Operation, req Request, existing State) (State, error) {
	allow := existing.AllowSharing
	if req.AllowSharing != nil {
		allow = *req.AllowSharing
	}

	if !allow && req.HasWhoCanAccess && len(req.WhoCanAccess) > op.maxRecipientsWithoutSharing() {
		return State{}, fmt.Errorf("%w: cannot %s a document with %d recipients while sharing is disabled",
			document.ErrPolicyViolation, op, len(req.WhoCanAccess))
	}

	list := existing.WhoCanAccess
	if req.HasWhoCanAccess {
		list = req.WhoCanAccess
	}
	list = dedupe(list)

	if len(list) == 0 {
		allow = false
	}
	if !allow {
		list = []models.Principal{}
	}
	return State{AllowSharing: allow, WhoCanAccess: list}, nil
}

func contains(list []models.Principal, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

// dedupe returns a fresh slice without repeated ids, keeping first occurrences.
func dedupe(list []models.Principal) []models.Principal {
	out := make([]models.Principal, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
