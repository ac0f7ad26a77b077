package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"chronicle/pkg/requestcontext"
)

// OrgHeader scopes a request to one organization for multi-tenant auditing.
const OrgHeader = "X-Chronicle-Org"

// RequestMeta captures the client network address, User-Agent, organization
// scope, and a request-scoped timestamp into the request context. Every record
// written for one request shares the same "now".
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithTime(ctx, time.Now())
		ctx = requestcontext.WithClientIP(ctx, ClientIP(r))
		ctx = requestcontext.WithUserAgent(ctx, r.UserAgent())
		if org := r.Header.Get(OrgHeader); org != "" {
			ctx = requestcontext.WithOrgID(ctx, org)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP resolves the originating address, preferring the first
// X-Forwarded-For hop. Returns "" when nothing resolvable is present.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
