package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
)

// ErrWrongClient is returned for tokens issued to a different client.
var ErrWrongClient = errors.New("token not issued for this client")

// Verifier checks tokens from a Keycloak realm (or any OIDC issuer).
// Keycloak access tokens name the requesting client in azp and carry
// "account" as audience, so either aud or azp may match the client id.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	clientID string
}

// IssuerURL joins a Keycloak base URL and realm. With an empty realm the URL
// is taken to be the issuer itself.
func IssuerURL(baseURL, realm string) string {
	base := strings.TrimRight(baseURL, "/")
	if realm == "" {
		return base
	}
	return base + "/realms/" + realm
}

// NewVerifier discovers the provider at issuer and returns a verifier for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover OIDC provider %s: %w", issuer, err)
	}
	return newVerifier(provider.Verifier(&oidc.Config{SkipClientIDCheck: true}), clientID), nil
}

func newVerifier(v *oidc.IDTokenVerifier, clientID string) *Verifier {
	return &Verifier{verifier: v, clientID: clientID}
}

// Verify checks signature, issuer and expiry, then the client binding.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if v.clientID == "" {
		return tok, nil
	}
	for _, aud := range tok.Audience {
		if aud == v.clientID {
			return tok, nil
		}
	}
	var c struct {
		AZP string `json:"azp"`
	}
	if err := tok.Claims(&c); err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	if c.AZP != v.clientID {
		return nil, ErrWrongClient
	}
	return tok, nil
}
