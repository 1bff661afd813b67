package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// VerifiedTokenPrefix namespaces cached verification results in Redis.
	VerifiedTokenPrefix = "verified_token:"
	// MaxCacheTTL caps how long a verification result is reused.
	MaxCacheTTL = 5 * time.Minute
)

// CachingVerifier remembers successful verifications in Redis until the
// token expires, so repeat requests skip the provider round trip.
type CachingVerifier struct {
	Next   TokenVerifier
	Client *redis.Client
	Now    func() time.Time
}

func NewCachingVerifier(next TokenVerifier, client *redis.Client) *CachingVerifier {
	return &CachingVerifier{Next: next, Client: client, Now: time.Now}
}

func cacheKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return VerifiedTokenPrefix + hex.EncodeToString(sum[:])
}

func (c *CachingVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	key := cacheKey(rawToken)

	// Misses and Redis errors both fall through to the provider.
	if cached, err := c.Client.Get(ctx, key).Result(); err == nil {
		var id Identity
		if json.Unmarshal([]byte(cached), &id) == nil && c.Now().Before(id.ExpiresAt) {
			return &id, nil
		}
	}

	id, err := c.Next.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	ttl := MaxCacheTTL
	if !id.ExpiresAt.IsZero() {
		if remaining := id.ExpiresAt.Sub(c.Now()); remaining < ttl {
			ttl = remaining
		}
	} else {
		id.ExpiresAt = c.Now().Add(ttl)
	}
	if ttl <= 0 {
		return id, nil
	}

	payload, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity: %w", err)
	}
	// Best effort.
	c.Client.Set(ctx, key, payload, ttl)
	return id, nil
}
