package entity

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidAddress marks a malformed wallet address (client error).
	ErrInvalidAddress = errors.New("Invalid address")
	// ErrUnsupportedNetwork marks a network key missing from the registry (client error).
	ErrUnsupportedNetwork = errors.New("Unsupported network")
	// ErrMissingConfig marks a required secret or setting absent at startup (fatal).
	ErrMissingConfig = errors.New("missing configuration")
)

// UpstreamError wraps a failure of an external collaborator: an RPC endpoint,
// the price oracle or the fiat rate API. It maps to a 5xx response.
type UpstreamError struct {
	Provider string
	Err      error
}

// NewUpstreamError wraps err as a failure of the named provider.
func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
