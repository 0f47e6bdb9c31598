package principal

import "context"

type contextKey struct{}

func With(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, contextKey{}, address)
}

// FromContext returns the authenticated principal address or "".
func FromContext(ctx context.Context) string {
	address, _ := ctx.Value(contextKey{}).(string)
	return address
}
