package middlewares

import (
	"context"

	jwtx "github.com/quickdeploy/auth-svc/internal/jwt"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySession
)

// WithRequestID guarda el request id en el contexto.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFrom devuelve el request id o "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// WithSession guarda los claims de la sesión autenticada.
func WithSession(ctx context.Context, c *jwtx.SessionClaims) context.Context {
	return context.WithValue(ctx, ctxKeySession, c)
}

// SessionFrom devuelve los claims o nil si la request no está autenticada.
func SessionFrom(ctx context.Context) *jwtx.SessionClaims {
	c, _ := ctx.Value(ctxKeySession).(*jwtx.SessionClaims)
	return c
}
