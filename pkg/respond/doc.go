// Package respond writes JSON envelopes and maps errors to HTTP statuses
// for the tenant and control-plane handlers.
//
// Every body has the shape {"data": ..., "meta": ..., "error": {...}}.
// Error picks the status from the error: ValidationError answers 422,
// HTTPError its own code and the tenant error kinds follow
// tenant.StatusCode. Anything else answers 500 without echoing the cause.
package respond
