// Package approval stores the opaque tokens embedded in manager approval
// emails. Tokens live in redis with a TTL equal to the approval-link
// lifetime, so an expired link simply stops resolving and the trip surfaces
// on the override worklist instead.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("approval token not found or expired")

const keyPrefix = "approval_token:"

// TokenStore issues and consumes single-use approval-link tokens.
type TokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenStore(rdb *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: ttl}
}

// Issue creates a fresh token mapping to the given trip id.
func (s *TokenStore) Issue(ctx context.Context, tripID string) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+token, tripID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store approval token: %w", err)
	}
	return token, nil
}

// Consume resolves a token to its trip id and deletes it, so a link can be
// used exactly once.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	tripID, err := s.rdb.GetDel(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve approval token: %w", err)
	}
	return tripID, nil
}
