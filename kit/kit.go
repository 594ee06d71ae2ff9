// Package kit provides transport-agnostic plumbing shared by the HTTP and
// MCP surfaces: the Endpoint abstraction and typed context values for
// request correlation.
package kit

import "context"

// Endpoint is a transport-agnostic operation: typed request in, typed
// response out.
type Endpoint func(ctx context.Context, req any) (any, error)
