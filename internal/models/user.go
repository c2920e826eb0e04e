package models

import (
	"strings"
	"time"
)

// Principal is the authenticated actor behind a request. It is also the
// summary embedded in documents (whoCanAccess) and comments (author).
type Principal struct {
	ID    string `bson:"id" json:"id" validate:"required"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email" validate:"required,email"`
}

// PrincipalFromClaims builds a Principal from verified token claims.
// The subject claim is mandatory; name falls back to Keycloak's
// preferred_username.
func PrincipalFromClaims(claims map[string]interface{}) (Principal, bool) {
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Principal{}, false
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	email, _ := claims["email"].(string)
	return Principal{ID: sub, Name: name, Email: strings.ToLower(strings.TrimSpace(email))}, true
}

// User is a directory record for a principal that has signed in at least once.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"` // token subject, equals Principal.ID
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Summary returns the principal snapshot used when sharing with this user.
func (u *User) Summary() Principal {
	return Principal{ID: u.Sub, Name: u.Name, Email: u.Email}
}
