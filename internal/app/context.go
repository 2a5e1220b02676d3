package app

import (
	"context"
	"errors"
)

type contextKey struct{}

// WithApp stores the App in ctx
func WithApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext retrieves the App stored by WithApp
func FromContext(ctx context.Context) (*App, error) {
	a, ok := ctx.Value(contextKey{}).(*App)
	if !ok || a == nil {
		return nil, errors.New("application not initialized")
	}
	return a, nil
}
