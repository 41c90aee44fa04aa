package authcore

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpRecordVersionV1 = 1

var (
	errOTPNotFound         = errors.New("otp challenge not found")
	errOTPMismatch         = errors.New("otp code mismatch")
	errOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	errOTPRedisUnavailable = errors.New("otp redis unavailable")
)

// otpChallenge stores the digest of the outstanding second-factor code
// for one identity. Issuing overwrites any prior challenge, so only the
// newest code can ever match.
type otpChallenge struct {
	CodeHash  [32]byte
	ExpiresAt int64
	Attempts  uint16
}

type otpChallengeStore struct {
	redis  *redis.Client
	prefix string
}

func newOTPChallengeStore(redisClient *redis.Client, prefix string) *otpChallengeStore {
	return &otpChallengeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *otpChallengeStore) key(email string) string {
	return s.prefix + ":" + email
}

// Save installs a fresh challenge for email, replacing any outstanding
// one and resetting its attempt counter.
func (s *otpChallengeStore) Save(
	ctx context.Context,
	email string,
	record *otpChallenge,
	ttl time.Duration,
) error {
	encoded, err := encodeOTPChallenge(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errOTPRedisUnavailable, err)
	}

	return nil
}

// Consume applies one verification attempt under a WATCH transaction.
// A match deletes the challenge (single-use). A mismatch increments the
// attempt counter in place, destroying the challenge once maxAttempts is
// reached. The comparison is constant-time over SHA-256 digests.
func (s *otpChallengeStore) Consume(
	ctx context.Context,
	email string,
	providedHash [32]byte,
	maxAttempts int,
) error {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOTPChallenge(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() > record.ExpiresAt {
				return txDelete(ctx, tx, key, errOTPNotFound)
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					return txDelete(ctx, tx, key, errOTPAttemptsExceeded)
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					return txDelete(ctx, tx, key, errOTPNotFound)
				}

				updated, err := encodeOTPChallenge(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return errOTPMismatch
			}

			return txDelete(ctx, tx, key, nil)
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return errOTPNotFound
			case errors.Is(err, errOTPNotFound),
				errors.Is(err, errOTPMismatch),
				errors.Is(err, errOTPAttemptsExceeded):
				return err
			default:
				return fmt.Errorf("%w: %v", errOTPRedisUnavailable, err)
			}
		}

		return nil
	}

	return errOTPNotFound
}

// txDelete removes key inside the transaction and returns outcome as the
// caller-visible result of the attempt.
func txDelete(ctx context.Context, tx *redis.Tx, key string, outcome error) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return err
	}
	return outcome
}

func encodeOTPChallenge(record *otpChallenge) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(otpRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeOTPChallenge(data []byte) (*otpChallenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersionV1 {
		return nil, errors.New("invalid otp challenge record version")
	}

	record := &otpChallenge{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
