package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request the service cannot interpret.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMissingVector signals a catalog record stored without an embedding.
	ErrMissingVector = errors.New("record has no vector")
	// ErrIndexUnavailable signals that the vector index failed or is unreachable.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnavailable signals that the service started in a degraded state.
	ErrUnavailable = errors.New("service unavailable")
)

// ConfigurationError records a component that failed to initialize at startup.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() []error { return []error{ErrUnavailable, e.Err} }

// NewConfigurationError wraps a startup failure of the named component.
func NewConfigurationError(component string, err error) error {
	return &ConfigurationError{Component: component, Err: err}
}
