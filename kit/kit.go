// Package kit provides the transport-agnostic endpoint layer shared by the
// HTTP API, the MCP server, and the CLI. Business operations are expressed as
// Endpoints; transports decode their own wire format and invoke the endpoint,
// optionally wrapped in Middleware.
package kit

import "context"

// Endpoint is a single business operation, independent of transport.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares into one. The first middleware is outermost:
// Chain(a, b, c)(e) runs a before b before c before e.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
