package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axokaze/kaze-api/internal/ratelimit"
	"github.com/axokaze/kaze-api/shared/auth"
)

type contextKey struct{ name string }

var userClaimsKey = &contextKey{name: "user_claims"}

// UserClaimsFromContext returns the verified access token claims placed by
// RequireAuth.
func UserClaimsFromContext(ctx context.Context) (*auth.UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*auth.UserClaims)
	return claims, ok
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequireAuth verifies the bearer access token and places its claims into
// the request context.
func RequireAuth(jwtAuth *auth.JWTAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, jwtAuth)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userClaimsKey, claims)))
		})
	}
}

func extractAndValidateJWT(r *http.Request, jwtAuth *auth.JWTAuthenticator) (*auth.UserClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("invalid authorization header format")
	}

	return jwtAuth.VerifyAccessToken(parts[1])
}

// RateLimit throttles an operation per client IP according to the
// limiter's policy for op.
func RateLimit(limiter *ratelimit.Limiter, op ratelimit.Operation, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := limiter.Allow(r.Context(), op, clientIP(r))
			switch {
			case errors.Is(err, ratelimit.ErrRateLimited):
				writeMessage(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			case err != nil:
				// Fail closed: a limiter outage must not become a bypass.
				logger.Error().Err(err).Str("operation", string(op)).Msg("rate limiter unavailable")
				writeMessage(w, http.StatusServiceUnavailable, "service temporarily unavailable")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
