package cron

import "context"

type passKey struct{}

// WithPassID stores the pass identifier for jobs running inside the pass.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passKey{}, passID)
}

// PassIDFromContext returns the current pass identifier, or "" outside a pass.
func PassIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(passKey{}).(string)
	return id
}
