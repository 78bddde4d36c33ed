package callog

import "context"

// subjectKey is a private type for the subject context key, preventing
// collisions with other packages.
type subjectKey struct{}

// SetSubject injects the authenticated principal into the context. Stores
// stamp saved records with it and scope reads by it.
func SetSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// GetSubject extracts the authenticated principal from the context.
// Returns an empty string when no subject is set (unscoped mode).
func GetSubject(ctx context.Context) string {
	if v, ok := ctx.Value(subjectKey{}).(string); ok {
		return v
	}
	return ""
}
