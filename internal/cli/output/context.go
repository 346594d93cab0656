package output

import "context"

// rendererKey is used to store the renderer in a command context.
type rendererKey struct{}

// NewContext returns a context carrying the renderer.
func NewContext(ctx context.Context, r *Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// FromContext retrieves the renderer stored by NewContext.
func FromContext(ctx context.Context) (*Renderer, bool) {
	r, ok := ctx.Value(rendererKey{}).(*Renderer)
	return r, ok
}
