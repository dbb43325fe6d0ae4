package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/safepay/wallet-api/internal/pkg/jwt"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

type contextKey string

const (
	AgentIDKey contextKey = "agent_id"
	ScopesKey  contextKey = "scopes"
)

// Auth returns middleware that validates agent JWTs
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(r.Context(), w, "Missing authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(r.Context(), w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAgentToken(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(r.Context(), w, "Token expired")
				} else {
					response.Unauthorized(r.Context(), w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), AgentIDKey, claims.AgentID)
			ctx = context.WithValue(ctx, ScopesKey, claims.Scopes)
			l := logger.FromContext(ctx).With().Str("agent_id", claims.AgentID).Logger()
			ctx = logger.WithContext(ctx, &l)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAgentID extracts the calling agent from context
func GetAgentID(ctx context.Context) string {
	if id, ok := ctx.Value(AgentIDKey).(string); ok {
		return id
	}
	return ""
}

// GetScopes extracts token scopes from context
func GetScopes(ctx context.Context) []string {
	if scopes, ok := ctx.Value(ScopesKey).([]string); ok {
		return scopes
	}
	return nil
}

// RequireScope returns middleware that checks the agent token carries scope. Use after Auth.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range GetScopes(r.Context()) {
				if s == scope {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(r.Context(), w, "Insufficient scope")
		})
	}
}
