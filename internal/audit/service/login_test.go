package service

import (
	"context"
	"errors"
	"strings"

	"chronicle/internal/audit/models"
	"chronicle/internal/audit/registry"
)

// fakeSession serves a fixed key/value map.
type fakeSession map[string]string

func (f fakeSession) Get(key string) string { return f[key] }

// failingLoginStore rejects every write.
type failingLoginStore struct{}

func (failingLoginStore) Create(context.Context, models.LoginRecord) error {
	return errors.New("disk full")
}

func (failingLoginStore) ListRecent(context.Context, int) ([]models.LoginRecord, error) {
	return nil, nil
}

// =============================================================================
// Authentication Recording Tests
// =============================================================================

func (s *RecorderSuite) TestOnAuthSucceeded() {
	s.Run("success lands a full login record", func() {
		s.recorder.OnAuthSucceeded(s.actorCtx(), AuthSucceeded{
			Username:   "bob",
			MFAEnabled: true,
			Meta: RequestMeta{
				IP:        "198.51.100.4",
				UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/127.0",
				Session:   fakeSession{"auth_backend": "ldap"},
			},
		})

		records := s.logins.All()
		s.Require().Len(records, 1)
		rec := records[0]
		s.Equal("bob", rec.Username)
		s.True(rec.Success)
		s.True(rec.MFAEnabled)
		s.Equal("198.51.100.4", rec.IP)
		s.Equal("LDAP", rec.Backend)
		s.Equal(models.LoginTypeWeb, rec.Type)
		s.Empty(rec.Reason)
		s.Equal(s.now, rec.CreatedAt)
	})

	s.Run("missing source address stores the sentinel", func() {
		s.recorder.OnAuthSucceeded(s.actorCtx(), AuthSucceeded{
			Username: "bob",
			Meta:     RequestMeta{},
		})

		records := s.logins.All()
		s.Require().Len(records, 1)
		s.Equal(models.UnknownIP, records[0].IP)
	})

	s.Run("oversized user agent is truncated", func() {
		s.recorder.OnAuthSucceeded(s.actorCtx(), AuthSucceeded{
			Username: "bob",
			Meta:     RequestMeta{UserAgent: strings.Repeat("u", 400)},
		})

		records := s.logins.All()
		s.Require().Len(records, 1)
		s.Len([]rune(records[0].UserAgent), models.MaxUserAgentLen)
	})

	s.Run("store failure is swallowed and observer stays silent", func() {
		r, err := New(registry.Default(), s.operate, failingLoginStore{}, s.passwords, s.resolver,
			WithObserver(s.observer))
		s.Require().NoError(err)

		r.OnAuthSucceeded(s.actorCtx(), AuthSucceeded{Username: "bob"})
		s.Empty(s.observer.records)
	})

	s.Run("observer sees the written record", func() {
		s.recorder.OnAuthSucceeded(s.actorCtx(), AuthSucceeded{Username: "bob"})

		s.Require().Len(s.observer.records, 1)
		rec, ok := s.observer.records[0].(models.LoginRecord)
		s.True(ok)
		s.Equal("bob", rec.Username)
	})
}

func (s *RecorderSuite) TestOnAuthFailed() {
	s.Run("failure lands the rejection reason", func() {
		s.recorder.OnAuthFailed(s.actorCtx(), AuthFailed{
			Username: "bob",
			Reason:   "invalid credentials",
			Meta:     RequestMeta{IP: "198.51.100.4"},
		})

		records := s.logins.All()
		s.Require().Len(records, 1)
		s.False(records[0].Success)
		s.Equal("invalid credentials", records[0].Reason)
	})

	s.Run("oversized reason is truncated", func() {
		s.recorder.OnAuthFailed(s.actorCtx(), AuthFailed{
			Username: "bob",
			Reason:   strings.Repeat("r", 300),
		})

		records := s.logins.All()
		s.Require().Len(records, 1)
		s.Len([]rune(records[0].Reason), models.MaxReasonLen)
	})
}

// =============================================================================
// Login Type Resolution Tests
// =============================================================================

func (s *RecorderSuite) TestResolveLoginType() {
	s.Run("request hint wins", func() {
		got := resolveLoginType(RequestMeta{LoginTypeHint: models.LoginTypeTerminal, API: true})
		s.Equal(models.LoginTypeTerminal, got)
	})

	s.Run("api request without a hint is unknown", func() {
		got := resolveLoginType(RequestMeta{API: true})
		s.Equal(models.LoginTypeUnknown, got)
	})

	s.Run("browser request without a hint is web", func() {
		got := resolveLoginType(RequestMeta{})
		s.Equal(models.LoginTypeWeb, got)
	})

	s.Run("hints outside the known set are stored as-is", func() {
		got := resolveLoginType(RequestMeta{LoginTypeHint: "X"})
		s.Equal("X", got)
	})
}

// =============================================================================
// Backend Label Tests
// =============================================================================

func (s *RecorderSuite) TestBackendLabels() {
	labels := &backendLabels{}

	s.Run("primary session key resolves", func() {
		got := labels.resolve(fakeSession{"auth_backend": "saml2"})
		s.Equal("SAML2", got)
	})

	s.Run("framework key is the fallback", func() {
		got := labels.resolve(fakeSession{"_auth_backend": "wecom"})
		s.Equal("WeCom", got)
	})

	s.Run("primary key wins over fallback", func() {
		got := labels.resolve(fakeSession{
			"auth_backend":  "password",
			"_auth_backend": "ldap",
		})
		s.Equal("Password", got)
	})

	s.Run("unknown identifier yields empty label", func() {
		got := labels.resolve(fakeSession{"auth_backend": "fingerprint"})
		s.Empty(got)
	})

	s.Run("nil session yields empty label", func() {
		got := labels.resolve(nil)
		s.Empty(got)
	})

	s.Run("dispatch channels can complete a login", func() {
		got := labels.resolve(fakeSession{"auth_backend": "sms"})
		s.Equal("SMS", got)
	})
}
