package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aadish-25/todo-backend/internal/domain"
	"github.com/aadish-25/todo-backend/internal/service/auth"
)

type userContextKey struct{}

const bearerPrefix = "Bearer "

// authenticate resolves the bearer token into a user and stores it on the request context.
func (r *Router) authenticate(_ http.ResponseWriter, req *http.Request) (*http.Request, error) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.metrics.authFailure("missing_token")
		return req, err
	}
	user, err := r.auth.Resolve(req.Context(), token)
	if err != nil {
		r.metrics.authFailure(authFailureReason(err))
		return req, err
	}
	return req.WithContext(WithUser(req.Context(), user)), nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-sensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", fmt.Errorf("%w: unsupported authorization scheme", auth.ErrMissingToken)
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: malformed bearer token", auth.ErrMissingToken)
	}
	return token, nil
}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user stored by the auth step.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*domain.User)
	return user, ok && user != nil
}
