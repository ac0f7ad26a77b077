package sms

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"chronicle/internal/platform/metrics"
)

var (
	// ErrCodeExpired reports a verification code that was never issued or
	// already timed out.
	ErrCodeExpired = errors.New("sms: verification code expired")
	// ErrCodeMismatch reports a wrong verification code.
	ErrCodeMismatch = errors.New("sms: verification code mismatch")
)

// CodeStore keeps issued verification codes in Redis. Codes are stored
// bcrypt-hashed with a TTL and consumed on first successful check.
type CodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCodeStore constructs a Redis-backed verification code store.
func NewCodeStore(rdb *redis.Client, ttl time.Duration) *CodeStore {
	return &CodeStore{rdb: rdb, ttl: ttl}
}

func codeKey(recipient string) string {
	return "chronicle:verify:code:" + recipient
}

// Save stores the hash of a freshly issued code, replacing any previous one
// for the same recipient.
func (s *CodeStore) Save(ctx context.Context, recipient, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash verification code: %w", err)
	}
	if err := s.rdb.Set(ctx, codeKey(recipient), hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return nil
}

// Verify checks a submitted code and consumes it on success.
func (s *CodeStore) Verify(ctx context.Context, recipient, code string) error {
	hash, err := s.rdb.Get(ctx, codeKey(recipient)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return ErrCodeMismatch
	}
	if err := s.rdb.Del(ctx, codeKey(recipient)).Err(); err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

// VerifyService issues verification codes through the resolved SMS backend
// and checks submissions against the code store.
type VerifyService struct {
	sender  *Sender
	codes   *CodeStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// VerifyOption configures optional collaborators.
type VerifyOption func(*VerifyService)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) VerifyOption {
	return func(v *VerifyService) { v.logger = logger }
}

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) VerifyOption {
	return func(v *VerifyService) { v.metrics = m }
}

// NewVerifyService builds a VerifyService.
func NewVerifyService(sender *Sender, codes *CodeStore, opts ...VerifyOption) (*VerifyService, error) {
	switch {
	case sender == nil:
		return nil, errors.New("sms sender is required")
	case codes == nil:
		return nil, errors.New("verification code store is required")
	}
	v := &VerifyService{
		sender: sender,
		codes:  codes,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// SendCode issues a fresh code to recipient. Configuration and delivery
// errors surface to the caller: without them the caller has no way to know
// delivery did not happen.
func (v *VerifyService) SendCode(ctx context.Context, recipient string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := v.codes.Save(ctx, recipient, code); err != nil {
		return err
	}
	result, err := v.sender.SendVerifyCode(ctx, recipient, code)
	if err != nil {
		return err
	}
	if v.metrics != nil {
		v.metrics.VerifyCodesSent.Inc()
	}
	v.logger.InfoContext(ctx, "verification code sent",
		"recipient", recipient, "request_id", result.RequestID)
	return nil
}

// CheckCode validates a submitted code, consuming it on success.
func (v *VerifyService) CheckCode(ctx context.Context, recipient, code string) error {
	return v.codes.Verify(ctx, recipient, code)
}

// generateCode produces a 6-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
