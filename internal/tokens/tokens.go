package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
)

// Manager signs and verifies HS256 access tokens carrying the principal
// (sub, name, email). It satisfies middleware.Verifier.
type Manager struct {
	secret []byte
	issuer string
}

// NewManager returns a Manager. An empty issuer disables the iss check.
func NewManager(secret, issuer string) (*Manager, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	return &Manager{secret: []byte(secret), issuer: issuer}, nil
}

// GenerateAccessToken creates a signed JWT access token for the principal
func (m *Manager) GenerateAccessToken(p models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"name":  p.Name,
		"email": p.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := jt.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates raw, rejecting anything not signed with HS256
// by this secret, expired, or issued by someone else.
func (m *Manager) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claimsToken(claims), nil
}

// claimsToken exposes a claims map through the middleware.Token interface.
type claimsToken map[string]interface{}

func (c claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(c))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
