// Package fetch holds reusable request-state machines layered over the API
// transport: Request for one-off loads, Submitter for form submissions and
// Paginator for accumulating paged lists.
//
// All primitives are safe for concurrent use. Overlapping calls are neither
// queued nor cancelled: whichever resolves last writes the final state.
package fetch
