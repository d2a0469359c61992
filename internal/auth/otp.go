package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowdesk/platform/pkg/logging"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// NormalizePhone validates and canonicalizes a phone number for use as an
// account key.
func NormalizePhone(phone string) (string, error) {
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	if phone[0] != '+' {
		phone = "+" + phone
	}
	return phone, nil
}

// OTPStore keeps pending login codes in Redis. Codes expire on their own and
// a per-phone attempt counter caps brute-force guessing.
type OTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
	codeLength  int
	logger      *logging.Logger
}

// NewOTPStore wires the store to Redis. Code length is clamped to 4..10
// digits so generated codes always fit an int64.
func NewOTPStore(client *redis.Client, ttl time.Duration, maxAttempts, codeLength int, logger *logging.Logger) *OTPStore {
	if client == nil {
		panic("auth: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if codeLength < 4 || codeLength > 10 {
		codeLength = 6
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OTPStore{client: client, ttl: ttl, maxAttempts: maxAttempts, codeLength: codeLength, logger: logger}
}

func otpKey(phone string) string      { return "otp:" + phone }
func attemptsKey(phone string) string { return "otp_attempts:" + phone }

// Issue generates a fresh code for the phone, replacing any pending one and
// resetting the attempt counter.
func (s *OTPStore) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateCode(s.codeLength)
	if err != nil {
		return "", fmt.Errorf("auth: generate code: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(phone), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store code: %w", err)
	}
	if err := s.client.Del(ctx, attemptsKey(phone)).Err(); err != nil {
		return "", fmt.Errorf("auth: reset attempts: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code. The pending code is consumed on success and
// discarded once the attempt cap is reached.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	attempts, err := s.client.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("auth: count attempt: %w", err)
	}
	if attempts == 1 {
		if err := s.client.Expire(ctx, attemptsKey(phone), s.ttl).Err(); err != nil {
			return fmt.Errorf("auth: expire attempts: %w", err)
		}
	}
	if attempts > int64(s.maxAttempts) {
		s.client.Del(ctx, otpKey(phone))
		s.logger.Error("otp attempt cap hit", "phone", phone)
		return ErrTooManyAttempts
	}

	stored, err := s.client.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("auth: load code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	if err := s.client.Del(ctx, otpKey(phone), attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("auth: consume code: %w", err)
	}
	return nil
}

func generateCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
