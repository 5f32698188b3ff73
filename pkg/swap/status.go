package swap

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"swapd/logger"
	"swapd/pkg/provider"
	"swapd/pkg/store"
	"swapd/pkg/types"
)

// Poller reconciles provider-reported statuses into the persisted swap
// lifecycle.
type Poller struct {
	store    store.SwapStore
	registry *provider.Registry
	// limiter bounds outbound status calls across all swaps.
	limiter *rate.Limiter
}

// NewPoller creates a status poller.
func NewPoller(st store.SwapStore, registry *provider.Registry) *Poller {
	return &Poller{
		store:    st,
		registry: registry,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
	}
}

// Poll returns the swap's current status. Terminal records short-circuit
// with zero outbound calls; records without an order id return their stored
// status. Otherwise the owning provider is asked and the transition is
// persisted only on change.
func (p *Poller) Poll(ctx context.Context, swapID string) (*types.StatusResult, error) {
	rec, err := p.store.Get(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if rec.Status.Terminal() {
		return &types.StatusResult{Status: rec.Status, DestTxHash: rec.DestTxHash}, nil
	}

	if rec.BridgeOrderID == "" {
		return &types.StatusResult{Status: rec.Status}, nil
	}

	prov, err := p.registry.Get(types.ProviderName(rec.Provider))
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("status poll aborted: %w", err)
	}

	result, err := prov.GetStatus(ctx, rec.BridgeOrderID)
	if err != nil {
		// Providers normalize transport failures to bridging themselves;
		// this is a safety net.
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	if result.Status != rec.Status {
		if err := p.store.UpdateStatus(ctx, swapID, result.Status, result.DestTxHash); err != nil {
			return nil, fmt.Errorf("persist status transition: %w", err)
		}
		logger.WithFields(logger.Fields{
			"swapId": swapID,
			"from":   rec.Status,
			"to":     result.Status,
		}).Info("swap status transition")
	}

	return result, nil
}
