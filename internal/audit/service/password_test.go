package service

import (
	"context"
	"errors"

	"chronicle/internal/audit/models"
	"chronicle/internal/audit/registry"
	"chronicle/pkg/testutil"
)

// failingPasswordStore rejects every write.
type failingPasswordStore struct{}

func (failingPasswordStore) Create(context.Context, models.PasswordChangeRecord) error {
	return errors.New("disk full")
}

func (failingPasswordStore) ListRecent(context.Context, int) ([]models.PasswordChangeRecord, error) {
	return nil, nil
}

// =============================================================================
// Password Change Tests
// =============================================================================

func (s *RecorderSuite) TestOnPasswordChanged() {
	s.Run("no ambient operation records the system actor", func() {
		s.recorder.OnPasswordChanged(context.Background(), PasswordChanged{User: entity("bob")})

		records := s.passwords.All()
		s.Require().Len(records, 1)
		s.Equal("bob", records[0].User)
		s.Equal("System", records[0].ChangeBy)
		s.Equal("127.0.0.1", records[0].RemoteAddr)
	})

	s.Run("unauthenticated ambient actor records a self change", func() {
		ctx := testutil.UnauthenticatedContext("203.0.113.9", s.now)
		s.recorder.OnPasswordChanged(ctx, PasswordChanged{User: entity("bob")})

		records := s.passwords.All()
		s.Require().Len(records, 1)
		s.Equal("bob", records[0].User)
		s.Equal("bob", records[0].ChangeBy)
		s.Equal("203.0.113.9", records[0].RemoteAddr)
		s.Equal(s.now, records[0].CreatedAt)
	})

	s.Run("authenticated actor records the actor", func() {
		s.recorder.OnPasswordChanged(s.actorCtx(), PasswordChanged{User: entity("bob")})

		records := s.passwords.All()
		s.Require().Len(records, 1)
		s.Equal("bob", records[0].User)
		s.Equal("alice", records[0].ChangeBy)
		s.Equal("10.0.0.5", records[0].RemoteAddr)
	})

	s.Run("no allow-list gate applies", func() {
		// "bob" the user entity need not appear in any registry table for a
		// password change to be recorded.
		s.recorder.OnPasswordChanged(s.actorCtx(), PasswordChanged{User: entity("service-account-1")})
		s.Len(s.passwords.All(), 1)
	})

	s.Run("store failure is swallowed and observer stays silent", func() {
		r, err := New(registry.Default(), s.operate, s.logins, failingPasswordStore{}, s.resolver,
			WithObserver(s.observer))
		s.Require().NoError(err)

		r.OnPasswordChanged(s.actorCtx(), PasswordChanged{User: entity("bob")})
		s.Empty(s.observer.records)
	})

	s.Run("observer sees the written record", func() {
		s.recorder.OnPasswordChanged(s.actorCtx(), PasswordChanged{User: entity("bob")})

		s.Require().Len(s.observer.records, 1)
		rec, ok := s.observer.records[0].(models.PasswordChangeRecord)
		s.True(ok)
		s.Equal("bob", rec.User)
	})
}
