package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenValidator is satisfied by *JWTService.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

var errMissingCredentials = errors.New("missing bearer token")

type claimsKey struct{}

// ContextWithClaims attaches the authenticated caller to ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller attached by the auth middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// authenticate validates an Authorization header value of the form
// "Bearer <token>". The scheme is case-insensitive.
func authenticate(v TokenValidator, header string) (*Claims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, errMissingCredentials
	}
	return v.ValidateToken(strings.TrimSpace(token))
}

func skipSet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e] = true
	}
	return set
}

// UnaryAuthInterceptor authenticates every unary call except skipMethods
// (full method names such as "/grpc.health.v1.Health/Check").
func UnaryAuthInterceptor(v TokenValidator, skipMethods []string) grpc.UnaryServerInterceptor {
	skip := skipSet(skipMethods)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if skip[info.FullMethod] {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		claims, err := authenticate(v, header)
		switch {
		case errors.Is(err, errMissingCredentials):
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		case err != nil:
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(ContextWithClaims(ctx, claims), req)
	}
}

// HTTPMiddleware authenticates every request whose path is not in skipPaths
// and answers 401 with a JSON error otherwise.
func HTTPMiddleware(v TokenValidator, skipPaths []string) func(http.Handler) http.Handler {
	skip := skipSet(skipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authenticate(v, r.Header.Get("Authorization"))
			switch {
			case errors.Is(err, errMissingCredentials):
				writeUnauthorized(w, "missing authorization header")
				return
			case err != nil:
				writeUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="credwise"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
