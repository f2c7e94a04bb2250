package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/h30s/muzier/pkg/ctxlogger"
	"github.com/h30s/muzier/pkg/rest"
)

func (c controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", uuid.NewString()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

// authMw resolves the sender from the room-scoped bearer token. Websocket
// clients cannot set headers from the browser, so a token query param is
// accepted as a fallback. The token's room claim must match the room in the
// path.
func (c controller) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "missing auth token"})
			return
		}

		claims, err := c.roomService.ParseJWT(token)
		if err != nil {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid auth token"})
			return
		}

		roomID := chi.URLParam(r, "room-id")
		if roomID == "" || claims.RoomID != roomID {
			rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "token is for another room"})
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, userIdCtxKey, claims.UserID)
		ctx = context.WithValue(ctx, roomIdCtxKey, claims.RoomID)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", claims.UserID))
		ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", claims.RoomID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
