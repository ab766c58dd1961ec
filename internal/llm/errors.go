package llm

import "fmt"

// ErrMissingAPIKey indicates a provider could not be constructed because no
// credential was supplied.
type ErrMissingAPIKey struct {
	Provider string
	EnvVar   string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("%s API key not provided: set %s or pass it explicitly", e.Provider, e.EnvVar)
	}
	return fmt.Sprintf("%s API key not provided", e.Provider)
}

// ErrMalformedResponse indicates the provider answered but the response had
// no usable completion.
type ErrMalformedResponse struct {
	Provider string
	Err      error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Provider, e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error { return e.Err }

// ErrProviderCall indicates the request did not complete: transport
// failure, timeout, or a non-2xx status.
type ErrProviderCall struct {
	Provider string
	Err      error
}

func (e *ErrProviderCall) Error() string {
	return fmt.Sprintf("%s provider call failed: %v", e.Provider, e.Err)
}

func (e *ErrProviderCall) Unwrap() error { return e.Err }

func missingKey(provider string) error {
	return &ErrMissingAPIKey{Provider: provider, EnvVar: EnvVar(provider)}
}
