package testutil

import (
	"context"
	"time"

	"chronicle/pkg/requestcontext"
)

// AuthenticatedContext returns a context carrying an authenticated actor,
// a client address, and a fixed time. This simulates what the middleware
// chain would install for an authenticated request.
func AuthenticatedContext(name, ip string, now time.Time) context.Context {
	ctx := requestcontext.WithActor(context.Background(),
		requestcontext.Actor{Name: name, Authenticated: true})
	ctx = requestcontext.WithClientIP(ctx, ip)
	return requestcontext.WithTime(ctx, now)
}

// UnauthenticatedContext returns a context for an in-flight operation whose
// actor has not authenticated yet (e.g. mid-login). An actor value is
// present but not authenticated.
func UnauthenticatedContext(ip string, now time.Time) context.Context {
	ctx := requestcontext.WithActor(context.Background(), requestcontext.Actor{})
	ctx = requestcontext.WithClientIP(ctx, ip)
	return requestcontext.WithTime(ctx, now)
}
