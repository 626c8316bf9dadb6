package auth

import "context"

// Session identifies an authenticated staff member for the lifetime of
// a request.
type Session struct {
	Username string
	Role     string
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the auth middleware. The
// second value is false on unauthenticated requests.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
