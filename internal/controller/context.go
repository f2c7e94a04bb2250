package controller

import "context"

type contextKey int

const (
	userIdCtxKey contextKey = iota
	roomIdCtxKey
)

func (c controller) getUserIdFromCtx(ctx context.Context) string {
	userId, ok := ctx.Value(userIdCtxKey).(string)
	if !ok {
		return ""
	}

	return userId
}

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, ok := ctx.Value(roomIdCtxKey).(string)
	if !ok {
		return ""
	}

	return roomId
}
