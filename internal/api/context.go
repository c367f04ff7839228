package api

import (
	"context"

	"rentals/pkg/token"
)

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Role   string
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == token.RoleAdmin
}

type ctxKey string

const ctxKeySession ctxKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

func SessionFromContext(ctx context.Context) *Session {
	v := ctx.Value(ctxKeySession)
	if v == nil {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
