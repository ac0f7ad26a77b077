// Package middleware populates the ambient request context the audit
// recorders read from: acting identity, client address, organization.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"chronicle/pkg/requestcontext"
)

// actorClaims is the token shape issued by the platform's auth service.
type actorClaims struct {
	Username string `json:"name"`
	jwt.RegisteredClaims
}

// Actor resolves the acting identity from a bearer token. The middleware
// always installs an Actor value: an HTTP request is an ambient operation
// even when nobody is authenticated yet, and downstream recorders distinguish
// "unauthenticated" from "no ambient operation at all".
func Actor(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := requestcontext.Actor{}

			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				claims, err := parseActorToken(token, signingKey)
				if err != nil {
					logger.WarnContext(r.Context(), "invalid bearer token", "error", err)
				} else {
					actor = requestcontext.Actor{Name: claims.Username, Authenticated: true}
				}
			}

			ctx := requestcontext.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseActorToken(token string, signingKey []byte) (*actorClaims, error) {
	claims := &actorClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.Username == "" {
		claims.Username = claims.Subject
	}
	return claims, nil
}
