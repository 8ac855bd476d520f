package identity

import "context"

type resolvedContextKey struct{}

// ContextWithResolved attaches the resolved identity to the context.
func ContextWithResolved(ctx context.Context, res *Resolved) context.Context {
	if res == nil {
		return ctx
	}
	return context.WithValue(ctx, resolvedContextKey{}, res)
}

// ResolvedFromContext extracts the resolved identity from the context.
func ResolvedFromContext(ctx context.Context) (*Resolved, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(resolvedContextKey{}).(*Resolved)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
