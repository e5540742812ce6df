package providers

import "fmt"

// ProviderError is a failure attributed to the remote API's own semantics:
// error codes, unexpected statuses, or bodies that cannot be parsed.
type ProviderError struct {
	Provider string
	Message  string
}

func newProviderError(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Message: fmt.Sprintf(format, args...)}
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("provider error: (%s) %s", e.Provider, e.Message)
	}
	return "provider error: " + e.Message
}

// UnknownProviderError is returned when an id or index is not registered
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown API provider: %s", e.ID)
}
