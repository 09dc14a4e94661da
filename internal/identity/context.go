package identity

import "context"

type ctxKey string

const (
	ctxUserIDKey     ctxKey = "user_id"
	ctxSuperAdminKey ctxKey = "super_admin"
)

// WithUser stores the authenticated user identity in the context.
// The super admin flag is resolved from the users table on every
// request, so admin revocation takes effect immediately.
func WithUser(ctx context.Context, userID string, superAdmin bool) context.Context {
	ctx = context.WithValue(ctx, ctxUserIDKey, userID)
	ctx = context.WithValue(ctx, ctxSuperAdminKey, superAdmin)
	return ctx
}

func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxUserIDKey)
	id, ok := v.(string)
	return id, ok
}

func IsSuperAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(ctxSuperAdminKey).(bool)
	return v
}
