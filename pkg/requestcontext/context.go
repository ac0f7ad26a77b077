// Package requestcontext provides HTTP-independent accessors for request-scoped
// ambient values: the acting identity, the client network address, and the
// current organization.
//
// Middleware sets these values; recorders and services only read them. Keeping
// this package free of net/http lets domain code consume ambient context
// without pulling in transport concerns.
//
// Usage in services (read values):
//
//	actor, ok := requestcontext.ActorFrom(ctx)
//	ip := requestcontext.ClientIP(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, actor)
//	ctx = requestcontext.WithClientIP(ctx, ip)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Actor is the identity performing the in-flight operation. Authenticated is
// false while a login or self-service flow has not finished yet; the absence
// of an Actor value altogether means no ambient operation is in progress.
type Actor struct {
	Name          string
	Authenticated bool
}

// Context key types (unexported for encapsulation).
type (
	actorKey       struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	orgIDKey       struct{}
	requestTimeKey struct{}
)

// WithActor injects the acting identity into the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom retrieves the acting identity. ok is false when no ambient
// operation is in progress at all.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// AuthenticatedActor returns the actor only if one is present and
// authenticated. Recorders that require a known actor use this form.
func AuthenticatedActor(ctx context.Context) (Actor, bool) {
	actor, ok := ActorFrom(ctx)
	if !ok || !actor.Authenticated {
		return Actor{}, false
	}
	return actor, true
}

// WithClientIP injects the originating network address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP retrieves the originating network address, or "" when unresolvable.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// WithUserAgent injects the raw User-Agent header value into the context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// UserAgent retrieves the raw User-Agent value, or "".
func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	return ua
}

// WithOrgID injects the current organization identifier into the context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgIDKey{}, orgID)
}

// OrgID retrieves the current organization identifier, or "" when no
// organization context exists.
func OrgID(ctx context.Context) string {
	orgID, _ := ctx.Value(orgIDKey{}).(string)
	return orgID
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as workers, CLI commands, and tests
// that did not inject one.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for batch operations that need one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
