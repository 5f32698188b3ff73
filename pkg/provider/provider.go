// Package provider integrates the bridge providers behind one capability
// interface and aggregates their quotes.
package provider

import (
	"context"
	"errors"
	"fmt"

	"swapd/pkg/types"
)

// BridgeProvider is the capability set every bridge integration implements.
type BridgeProvider interface {
	Name() types.ProviderName
	// GetQuote issues one outbound quote call and normalizes the response.
	GetQuote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error)
	// CreateTransaction re-derives a submittable bridge-leg transaction from
	// the quote's opaque payload.
	CreateTransaction(ctx context.Context, quote *types.Quote) (*types.TransactionResult, error)
	// GetStatus maps the provider's status vocabulary onto the swap
	// lifecycle. Transport failures read as bridging, never as errors.
	GetStatus(ctx context.Context, orderID string) (*types.StatusResult, error)
}

// QuoteError is a provider's failed quote call, carrying the HTTP response.
type QuoteError struct {
	Provider   types.ProviderName
	StatusCode int
	Body       string
	Err        error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s quote failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s quote failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// ResponseShapeError means a provider's opaque payload lacked the expected
// substructure.
type ResponseShapeError struct {
	Provider types.ProviderName
	Reason   string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// ErrNoQuotes is returned when every provider failed to quote.
var ErrNoQuotes = errors.New("no valid quotes available from any provider")

// Registry is the closed set of bridge providers, in stable order.
type Registry struct {
	providers []BridgeProvider
}

// NewRegistry creates a registry. Order is significant: the comparison
// tie-break keeps the earlier provider.
func NewRegistry(providers ...BridgeProvider) *Registry {
	return &Registry{providers: providers}
}

// Get returns the provider with the given name.
func (r *Registry) Get(name types.ProviderName) (BridgeProvider, error) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider: %s", name)
}

// All returns the providers in registration order.
func (r *Registry) All() []BridgeProvider {
	return r.providers
}
