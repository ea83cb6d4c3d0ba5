// ABOUTME: Request identity for handlers behind the bearer middleware
// ABOUTME: Provides WithIdentity/FromContext for propagating it via context

package auth

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject string
	Role    string
}

// IsAdmin reports whether the caller has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == "admin"
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the request identity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
