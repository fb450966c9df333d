package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered list of middleware. The first entry sees the request
// first.
type Chain []Middleware

// NewChain returns a chain of the given middleware.
func NewChain(m ...Middleware) Chain {
	return append(Chain(nil), m...)
}

// Append returns a new chain with m added after the existing entries.
func (c Chain) Append(m ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(m))
	out = append(out, c...)
	return append(out, m...)
}

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.DefaultServeMux
	}
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

// ThenFunc is Then for a handler function.
func (c Chain) ThenFunc(fn http.HandlerFunc) http.Handler {
	return c.Then(fn)
}
