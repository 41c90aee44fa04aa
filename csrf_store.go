package authcore

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arkoze/authcore/internal"
)

var (
	errCSRFNotFound         = errors.New("csrf token not found")
	errCSRFMismatch         = errors.New("csrf token mismatch")
	errCSRFRedisUnavailable = errors.New("csrf redis unavailable")
)

// csrfStore keeps one anti-forgery token per user. The token is handed to
// the client as a readable cookie and must be echoed in a header on every
// state-changing request; it rotates independently of the refresh token.
type csrfStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func newCSRFStore(redisClient *redis.Client, prefix string, ttl time.Duration) *csrfStore {
	return &csrfStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *csrfStore) key(userID string) string {
	return s.prefix + ":" + userID
}

// Issue mints and stores a fresh token for userID, replacing any prior
// one. Rotation is the same operation.
func (s *csrfStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := internal.NewCSRFToken()
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, s.key(userID), token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errCSRFRedisUnavailable, err)
	}

	return token, nil
}

// Validate compares presented against the stored token in constant time.
func (s *csrfStore) Validate(ctx context.Context, userID, presented string) error {
	stored, err := s.redis.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errCSRFNotFound
		}
		return fmt.Errorf("%w: %v", errCSRFRedisUnavailable, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return errCSRFMismatch
	}

	return nil
}

// Clear removes the user's token. Missing keys are not an error; logout
// is idempotent.
func (s *csrfStore) Clear(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errCSRFRedisUnavailable, err)
	}
	return nil
}
