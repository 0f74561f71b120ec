package core

import "context"

// Session identifies the actor of a request: who they are and which dashboard they see.
// It is built per request (from the auth token) and passed down explicitly.
type Session struct {
	UserID    string
	Username  string
	Email     string
	Name      string
	Role      string
	ProfileID string // Student, Teacher or Staff id linked to the user, if any
}

func (s Session) IsZero() bool { return s.UserID == "" }

func (s Session) Is(role string) bool { return s.Role == role }

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the Session stored in ctx and whether there was one.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && !s.IsZero()
}
