package document

import (
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

// Document is a Markdown document owned by a single principal and optionally
// shared read-only with a list of other principals.
type Document struct {
	ID           string             `json:"id" bson:"_id"`
	Title        string             `json:"title" bson:"title"`
	Content      string             `json:"content" bson:"content"`
	OwnerID      string             `json:"ownerId" bson:"ownerId"`
	AllowSharing bool               `json:"allowSharing" bson:"allowSharing"`
	WhoCanAccess []models.Principal `json:"whoCanAccess" bson:"whoCanAccess"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so callers never alias stored state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.WhoCanAccess = append([]models.Principal{}, d.WhoCanAccess...)
	return &out
}

// Comment is attached to a document by reference; it does not own it.
type Comment struct {
	ID         string           `json:"id" bson:"_id"`
	DocumentID string           `json:"documentId" bson:"documentId"`
	Content    string           `json:"content" bson:"content"`
	Author     models.Principal `json:"author" bson:"author"`
	CreatedAt  time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt" bson:"updatedAt"`
}
