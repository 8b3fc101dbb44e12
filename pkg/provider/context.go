package provider

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying p
func NewContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// Lookup returns the provider carried by ctx, if any
func Lookup(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(contextKey{}).(*Provider)
	return p, ok && p != nil
}

// FromContext returns the provider carried by ctx. It panics when there is
// none; reaching for the store outside a mounted provider is a programming error.
func FromContext(ctx context.Context) *Provider {
	p, ok := Lookup(ctx)
	if !ok {
		panic("provider.FromContext must be used within a mounted Provider")
	}
	return p
}
