package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:access:"

// RevocationList records access tokens revoked before their expiry (logout).
// A nil client disables revocation: Revoke is a no-op and nothing is revoked.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList wraps a Redis client. Safe to call with nil.
func NewRevocationList(c *redis.Client) *RevocationList {
	return &RevocationList{client: c}
}

// Enabled reports whether revocations are actually persisted.
func (r *RevocationList) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke stores the token with the given TTL (normally until its exp claim).
func (r *RevocationList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if !r.Enabled() || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedPrefix+token, "1", ttl).Err()
}

// IsRevoked returns true when the token is on the list.
func (r *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	exists, err := r.client.Exists(ctx, revokedPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
