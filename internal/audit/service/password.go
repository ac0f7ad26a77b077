package service

import (
	"context"

	"github.com/google/uuid"

	"chronicle/internal/audit/fanout"
	"chronicle/internal/audit/models"
	"chronicle/pkg/requestcontext"
)

// PasswordChanged notifies that a user's password was changed.
type PasswordChanged struct {
	User Instance
}

// systemActor is recorded when a password changes outside any ambient
// operation, e.g. from an administrative script.
const (
	systemActor      = "System"
	loopbackSentinel = "127.0.0.1"
)

// OnPasswordChanged writes a password-change record unconditionally; there is
// no allow-list gate. Actor resolution distinguishes three cases: no ambient
// operation at all (system-initiated), an ambient operation whose actor is not
// authenticated yet (self-service reset before login finalization), and a
// normal authenticated operation.
func (r *Recorder) OnPasswordChanged(ctx context.Context, ev PasswordChanged) {
	user := ev.User.DisplayName()

	var changeBy, remoteAddr string
	actor, ambient := requestcontext.ActorFrom(ctx)
	switch {
	case !ambient:
		changeBy = systemActor
		remoteAddr = loopbackSentinel
	case !actor.Authenticated:
		changeBy = user
		remoteAddr = requestcontext.ClientIP(ctx)
	default:
		changeBy = actor.Name
		remoteAddr = requestcontext.ClientIP(ctx)
	}

	record := models.PasswordChangeRecord{
		ID:         uuid.New(),
		User:       user,
		ChangeBy:   changeBy,
		RemoteAddr: remoteAddr,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := r.passwords.Create(ctx, record); err != nil {
		r.writeFailed(ctx, "create password change record", err)
		return
	}
	r.written(string(fanout.CategoryPasswordChangeLog), 1)
	r.notify(ctx, record)
}
