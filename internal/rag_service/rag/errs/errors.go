// Package errs defines the error taxonomy of the retrieval core. Callers
// branch with errors.As so each failure class keeps a distinct recovery
// path: validation and configuration problems are fixable by the caller,
// provider failures may be retried by an outer layer, parse failures call
// for a stricter prompt, and not-ready is a signal to poll again.
package errs

import "fmt"

// ValidationError reports a missing or malformed input. Raised before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a missing provider credential or setting for
// which no fallback applies.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// ProviderError carries a non-success upstream response, including the
// upstream status and message. Transport timeouts surface here as well.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s returned status %d: %s", e.Provider, e.Status, e.Message)
}

// ParseError reports malformed structured output from a language model.
// Distinct from ProviderError so callers can retry with a stricter prompt
// instead of assuming the provider is down.
type ParseError struct {
	Reason string
	Raw    string // truncated raw output, for server-side logs
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse model output: %s", e.Reason)
}

// NotReadyError signals that a document's structural index exists but has
// not reached the ready state. Clients should retry later.
type NotReadyError struct {
	DocumentID string
	State      string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("document %s is not ready yet (state: %s)", e.DocumentID, e.State)
}

// NotFoundError signals that a document, tree, or fragment set was never
// submitted. Distinct from NotReadyError.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
