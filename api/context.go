package api

import (
	"context"

	"github.com/google/uuid"
)

type keyType string

const (
	userIDKey keyType = "userID"
)

// ctxWithUserID adds the authenticated user's ID to the context
func ctxWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ctxGetUserID retrieves the authenticated user's ID from the context
func ctxGetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
