package authcore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingRecordVersionV1 = 1

var (
	errPendingNotFound         = errors.New("pending registration not found")
	errPendingRedisUnavailable = errors.New("pending registration redis unavailable")
)

// pendingRegistration is the not-yet-committed account data parked behind
// a verification token. It is written once and consumed once; there is no
// mutation path.
type pendingRegistration struct {
	Name         string
	Email        string
	PasswordHash string
}

type pendingRegistrationStore struct {
	redis  *redis.Client
	prefix string
}

func newPendingRegistrationStore(redisClient *redis.Client, prefix string) *pendingRegistrationStore {
	return &pendingRegistrationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *pendingRegistrationStore) key(token string) string {
	return s.prefix + ":" + token
}

// Save parks record under token for ttl. A second Save with the same
// token overwrites unconditionally, per the store contract.
func (s *pendingRegistrationStore) Save(
	ctx context.Context,
	token string,
	record *pendingRegistration,
	ttl time.Duration,
) error {
	encoded, err := encodePendingRegistration(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
	}

	return nil
}

// Take fetches and deletes the record in one server-side step (GETDEL),
// so at most one caller can ever observe a given token. Absent and
// expired tokens are indistinguishable by design.
func (s *pendingRegistrationStore) Take(ctx context.Context, token string) (*pendingRegistration, error) {
	data, err := s.redis.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errPendingNotFound
		}
		return nil, fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
	}

	record, err := decodePendingRegistration(data)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func encodePendingRegistration(record *pendingRegistration) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(pendingRecordVersionV1)

	for _, field := range []string{record.Name, record.Email, record.PasswordHash} {
		if len(field) > 65535 {
			return nil, errors.New("pending registration field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodePendingRegistration(data []byte) (*pendingRegistration, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingRecordVersionV1 {
		return nil, errors.New("invalid pending registration record version")
	}

	fields := make([]string, 3)
	for i := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}

	return &pendingRegistration{
		Name:         fields[0],
		Email:        fields[1],
		PasswordHash: fields[2],
	}, nil
}
