package middleware

import (
	"context"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/enums"
)

type contextKey string

const (
	ctxUser  contextKey = "user"
	ctxToken contextKey = "access_token"
)

// UserFromContext returns the authenticated account, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) int64 {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if user := UserFromContext(ctx); user != nil {
		return user.Role
	}
	return ""
}

// TokenFromContext returns the bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxToken).(string); ok {
		return v
	}
	return ""
}

// WithUser injects the authenticated account and its token into the context.
func WithUser(ctx context.Context, user *models.User, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUser, user)
	return context.WithValue(ctx, ctxToken, token)
}
