package authcore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRevocationRedisUnavailable = errors.New("revocation redis unavailable")

// revocationStore keeps one timestamp per user: the instant of the most
// recent revoke-all. Refresh tokens issued at or before that instant are
// rejected. The marker lives exactly as long as the longest-lived refresh
// token it can invalidate, after which it expires harmlessly.
type revocationStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func newRevocationStore(redisClient *redis.Client, ttl time.Duration) *revocationStore {
	return &revocationStore{
		redis:  redisClient,
		prefix: "rev",
		ttl:    ttl,
	}
}

func (s *revocationStore) key(userID string) string {
	return s.prefix + ":" + userID
}

// Revoke records at as the user's revocation instant. Later calls move
// the instant forward; the TTL restarts on every write.
func (s *revocationStore) Revoke(ctx context.Context, userID string, at time.Time) error {
	value := strconv.FormatInt(at.Unix(), 10)
	if err := s.redis.Set(ctx, s.key(userID), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRevocationRedisUnavailable, err)
	}
	return nil
}

// RevokedAt returns the user's revocation instant and whether one is
// recorded. A corrupt marker is treated as no revocation rather than
// locking the user out of refresh entirely.
func (s *revocationStore) RevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	value, err := s.redis.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", errRevocationRedisUnavailable, err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}

	return time.Unix(unix, 0), true, nil
}
