package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pronet-backend/internal/features/user/models"
	rplatform "pronet-backend/internal/platform/redis"
)

// TokenCache caches resolved identities per access token so repeated requests
// skip the userinfo round trip. Entries expire on their own; there is no
// invalidation path, so the TTL bounds how long a revoked token stays usable.
type TokenCache struct {
	client *rplatform.Client
	ttl    time.Duration
}

func NewTokenCache(client *rplatform.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, ttl: ttl}
}

// Tokens are keyed by digest so raw credentials never reach the cache server.
func (c *TokenCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("auth:token:%s", hex.EncodeToString(sum[:]))
}

// Get returns the cached identity for the token, or nil on a miss.
func (c *TokenCache) Get(ctx context.Context, token string) (*models.AuthUser, error) {
	v, err := c.client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var user models.AuthUser
	if err := json.Unmarshal(v, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Set stores the identity under the token's digest for the configured TTL.
func (c *TokenCache) Set(ctx context.Context, token string, user *models.AuthUser) error {
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(token), b, c.ttl).Err()
}
