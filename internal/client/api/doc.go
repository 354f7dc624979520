// Package api is the HTTP transport of the community hub client.
//
// # Overview
//
// Client issues JSON and multipart requests against the backend REST API,
// attaches the bearer token when one is set and normalizes the backend
// envelope into a Response. Typed endpoint groups (AuthAPI, EventsAPI,
// DiscussionsAPI, SpeakersAPI, ContactAPI) sit on top of it.
//
// # Error Handling
//
// Every failure reaches the caller. Non-2xx responses become *Error, which
// keeps the status, the backend message and the validation array verbatim.
// Sentinels for errors.Is: ErrUnauthorized (401/403), ErrUnavailable
// (network failures) and ErrInvalidResponse (2xx with an unparsable body).
//
// # Tokens
//
// The token is read from the TokenStore once in New. SetToken updates the
// in-memory copy and the store together; Token never touches the store.
package api
