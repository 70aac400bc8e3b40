package auth

import "context"

type contextKey struct{}

// Identity is the authenticated caller. Email is the household-wide user
// key: it owns private chores and is matched for visibility.
type Identity struct {
	Email string
	Name  string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Email returns the caller's email, or "" when the context carries no
// identity.
func Email(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.Email
}

// DisplayName prefers the name claim and falls back to the email.
func DisplayName(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	if id.Name != "" {
		return id.Name
	}
	return id.Email
}
