package web

import "context"

type contextKey int

const userKey contextKey = iota

// User is the authenticated actor attached to a request context.
type User struct {
	ID       int64
	Username string
	IsAdmin  bool
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func CurrentUser(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	return user, ok
}
