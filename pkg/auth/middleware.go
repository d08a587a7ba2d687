package auth

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
)

type contextKey string

const (
	tokenHeader              = "Authorization"
	tokenPrefix              = "Bearer "
	APIKeyHeader             = "X-Api-Key"
	UserClaimsKey contextKey = "user_claims"
	CallerKey     contextKey = "caller"
)

// InterceptorOption configures the auth interceptor
type InterceptorOption func(*interceptorConfig)

type interceptorConfig struct {
	apiKeys *APIKeys
}

// WithAPIKeys lets callers authenticate with an X-Api-Key header
func WithAPIKeys(keys *APIKeys) InterceptorOption {
	return func(c *interceptorConfig) { c.apiKeys = keys }
}

// NewAuthInterceptor creates a ConnectRPC interceptor that resolves the
// caller identity from a bearer token or, when configured, an API key.
func NewAuthInterceptor(signer *Signer, opts ...InterceptorOption) connect.UnaryInterceptorFunc {
	cfg := &interceptorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if key := req.Header().Get(APIKeyHeader); key != "" && cfg.apiKeys.Len() > 0 {
				identity, err := cfg.apiKeys.Resolve(key)
				if err != nil {
					return nil, connect.NewError(connect.CodeUnauthenticated, err)
				}
				return next(WithCaller(ctx, identity), req)
			}

			authHeader := req.Header().Get(tokenHeader)
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing authorization header"))
			}

			if !strings.HasPrefix(authHeader, tokenPrefix) {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid authorization header format"))
			}

			token := strings.TrimPrefix(authHeader, tokenPrefix)
			claims, err := signer.ValidateToken(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid or expired token"))
			}

			ctx = context.WithValue(ctx, UserClaimsKey, claims)
			return next(WithCaller(ctx, claims.Subject), req)
		}
	}
}

// WithCaller stores the resolved caller identity in ctx
func WithCaller(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, CallerKey, identity)
}

// CallerFromContext retrieves the caller identity from the context.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CallerKey).(string)
	return id, ok && id != ""
}

// GetUserClaims retrieves the full token claims from the context.
func GetUserClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}
