package resetstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "portal:pwreset"

var (
	ErrTokenNotFound    = errors.New("reset token not found")
	ErrStoreUnavailable = errors.New("reset store unavailable")
)

// Store keeps single-use password reset tokens in redis. Only the sha256 of
// a token is used as the key; the value is the student id.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + ":" + hex.EncodeToString(sum[:])
}

// Issue creates a fresh token for studentID and returns it with its expiry.
func (s *Store) Issue(ctx context.Context, studentID uint) (string, time.Time, error) {
	token := uuid.NewString()
	expires := time.Now().Add(s.ttl)
	if err := s.redis.Set(ctx, s.key(token), strconv.FormatUint(uint64(studentID), 10), s.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, expires, nil
}

// Consume atomically reads and deletes the token, so a token redeems once.
func (s *Store) Consume(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrTokenNotFound
	}
	val, err := s.redis.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrTokenNotFound
	}
	return uint(id), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
