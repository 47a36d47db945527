package auth

import (
	"context"

	"github.com/2beens/prtracker/internal/errvalues"
)

type userIDKey struct{}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

// RequireUserID is UserIDFromContext for handlers behind the auth middleware.
func RequireUserID(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return "", errvalues.ErrNotAuthenticated
	}
	return userID, nil
}
