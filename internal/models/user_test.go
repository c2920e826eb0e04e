package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrincipalFromClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
		want   Principal
		ok     bool
	}{
		{"full", map[string]interface{}{"sub": "u1", "name": "Uma", "email": " Uma@Example.com "}, Principal{ID: "u1", Name: "Uma", Email: "uma@example.com"}, true},
		{"keycloak username", map[string]interface{}{"sub": "u2", "preferred_username": "vic"}, Principal{ID: "u2", Name: "vic"}, true},
		{"missing subject", map[string]interface{}{"email": "x@example.com"}, Principal{}, false},
		{"blank subject", map[string]interface{}{"sub": "  "}, Principal{}, false},
		{"non-string subject", map[string]interface{}{"sub": 42.0}, Principal{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrincipalFromClaims(tt.claims)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestUserSummary(t *testing.T) {
	u := &User{ID: "65a000000000000000000001", Sub: "u1", Email: "uma@example.com", Name: "Uma"}
	require.Equal(t, Principal{ID: "u1", Name: "Uma", Email: "uma@example.com"}, u.Summary())
}
