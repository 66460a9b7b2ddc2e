// Package llm talks to OpenAI-compatible chat-completions endpoints.
//
// The [Generator] interface is the seam the rest of the program depends on;
// [OpenAI] is the only implementation. Transient failures (429 and 5xx) are
// retried with exponential back-off. Authentication failures are returned
// as [*AuthError] so callers can map them to a distinct exit code.
//
// The HTTP client is a field on the struct so tests can point it at a local
// httptest server.
package llm
