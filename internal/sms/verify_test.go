package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Verification Code Test Suite
// =============================================================================
// Justification for unit tests: expiry, mismatch, and consume-on-success are
// store-state transitions that need a controllable clock and Redis instance.

type VerifySuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	codes   *CodeStore
	gateway *captureGateway
	service *VerifyService
}

func TestVerifySuite(t *testing.T) {
	suite.Run(t, new(VerifySuite))
}

func (s *VerifySuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.codes = NewCodeStore(rdb, 2*time.Minute)
	s.gateway = &captureGateway{}

	settings := mapSettings{
		"ALIBABA_ACCESS_KEY_ID":        "ak-id",
		"ALIBABA_ACCESS_KEY_SECRET":    "ak-secret",
		"ALIBABA_VERIFY_SIGN_NAME":     "Chronicle",
		"ALIBABA_VERIFY_TEMPLATE_CODE": "SMS_100",
	}
	sender, err := New(BackendAlibaba, settings, s.gateway)
	s.Require().NoError(err)

	s.service, err = NewVerifyService(sender, s.codes)
	s.Require().NoError(err)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *VerifySuite) TestNewVerifyService() {
	s.Run("nil sender returns error", func() {
		_, err := NewVerifyService(nil, s.codes)
		s.Error(err)
		s.Contains(err.Error(), "sender is required")
	})

	s.Run("nil code store returns error", func() {
		sender, err := New(BackendAlibaba, mapSettings{
			"ALIBABA_ACCESS_KEY_ID":     "ak-id",
			"ALIBABA_ACCESS_KEY_SECRET": "ak-secret",
		}, s.gateway)
		s.Require().NoError(err)

		_, err = NewVerifyService(sender, nil)
		s.Error(err)
		s.Contains(err.Error(), "code store is required")
	})
}

// =============================================================================
// Code Store Tests
// =============================================================================

func (s *VerifySuite) TestCodeStore() {
	ctx := context.Background()
	const recipient = "+8613800138000"

	s.Run("verify consumes the code on success", func() {
		s.Require().NoError(s.codes.Save(ctx, recipient, "123456"))

		s.NoError(s.codes.Verify(ctx, recipient, "123456"))
		// Consumed: the same code cannot be checked twice.
		s.ErrorIs(s.codes.Verify(ctx, recipient, "123456"), ErrCodeExpired)
	})

	s.Run("wrong code is a mismatch and stays usable", func() {
		s.Require().NoError(s.codes.Save(ctx, recipient, "123456"))

		s.ErrorIs(s.codes.Verify(ctx, recipient, "000000"), ErrCodeMismatch)
		s.NoError(s.codes.Verify(ctx, recipient, "123456"))
	})

	s.Run("never issued code reports expired", func() {
		s.ErrorIs(s.codes.Verify(ctx, "+8613900000000", "123456"), ErrCodeExpired)
	})

	s.Run("code times out after the ttl", func() {
		s.Require().NoError(s.codes.Save(ctx, recipient, "123456"))

		s.mr.FastForward(3 * time.Minute)
		s.ErrorIs(s.codes.Verify(ctx, recipient, "123456"), ErrCodeExpired)
	})

	s.Run("a fresh code replaces the previous one", func() {
		s.Require().NoError(s.codes.Save(ctx, recipient, "111111"))
		s.Require().NoError(s.codes.Save(ctx, recipient, "222222"))

		s.ErrorIs(s.codes.Verify(ctx, recipient, "111111"), ErrCodeMismatch)
		s.NoError(s.codes.Verify(ctx, recipient, "222222"))
	})

	s.Run("codes are not stored in the clear", func() {
		s.Require().NoError(s.codes.Save(ctx, recipient, "123456"))

		stored, err := s.mr.Get("chronicle:verify:code:" + recipient)
		s.Require().NoError(err)
		s.NotContains(stored, "123456")
	})
}

// =============================================================================
// Round-Trip Tests
// =============================================================================

func (s *VerifySuite) TestSendAndCheck() {
	ctx := context.Background()
	const recipient = "+8613800138000"

	s.Run("sent code checks out once", func() {
		s.Require().NoError(s.service.SendCode(ctx, recipient))

		s.Require().Len(s.gateway.calls, 1)
		code := s.gateway.calls[0].TemplateParams["code"]
		s.Len(code, 6)

		s.NoError(s.service.CheckCode(ctx, recipient, code))
		s.ErrorIs(s.service.CheckCode(ctx, recipient, code), ErrCodeExpired)
	})

	s.Run("delivery failure surfaces", func() {
		s.gateway.err = errors.New("provider unreachable")
		s.Error(s.service.SendCode(ctx, recipient))
	})
}
