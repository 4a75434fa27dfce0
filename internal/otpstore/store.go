package otpstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "portal:otp"
	codeDigits  = 6
	MaxAttempts = 5
)

var (
	ErrCodeInvalid      = errors.New("otp invalid or expired")
	ErrStoreUnavailable = errors.New("otp store unavailable")
)

// Store keeps one pending email verification code per roll number. The
// hash holds the code digest, the email the code was sent to and a count
// of failed attempts; issuing a new code replaces the old one.
type Store struct {
	redis *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{redis: client}
}

func key(rollNo string) string { return keyPrefix + ":" + rollNo }

func digest(rollNo, code string) string {
	sum := sha256.Sum256([]byte(rollNo + ":" + code))
	return hex.EncodeToString(sum[:])
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// Issue stores a fresh code bound to email for rollNo and returns it.
func (s *Store) Issue(ctx context.Context, rollNo, email string, ttl time.Duration) (string, time.Time, error) {
	code, err := newCode()
	if err != nil {
		return "", time.Time{}, err
	}
	k := key(rollNo)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, "code", digest(rollNo, code), "email", email, "attempts", 0)
	pipe.Expire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return code, time.Now().Add(ttl), nil
}

// Verify checks code for rollNo and, on success, deletes it and returns
// the email it was issued for. After MaxAttempts wrong codes the pending
// code is discarded.
func (s *Store) Verify(ctx context.Context, rollNo, code string) (string, error) {
	k := key(rollNo)
	vals, err := s.redis.HGetAll(ctx, k).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(vals) == 0 || code == "" {
		return "", ErrCodeInvalid
	}

	if subtle.ConstantTimeCompare([]byte(vals["code"]), []byte(digest(rollNo, code))) != 1 {
		n, err := s.redis.HIncrBy(ctx, k, "attempts", 1).Result()
		if err == nil && n >= MaxAttempts {
			s.redis.Del(ctx, k)
		}
		return "", ErrCodeInvalid
	}

	deleted, err := s.redis.Del(ctx, k).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// a concurrent Verify already redeemed it
	if deleted == 0 {
		return "", ErrCodeInvalid
	}
	return vals["email"], nil
}
