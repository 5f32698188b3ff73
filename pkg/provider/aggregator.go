package provider

import (
	"context"
	"sync"

	"swapd/logger"
	"swapd/pkg/types"
)

// Comparison is the result of fanning one quote request out to every
// registered provider.
type Comparison struct {
	// Quotes are the successful quotes, in provider registration order.
	Quotes []*types.Quote
	// Best is the quote with the strictly greatest estimated output. On a
	// tie the first quote in registration order wins.
	Best *types.Quote
}

// ComparisonQuotes requests a quote from every provider concurrently. One
// provider's failure never discards another's result; only an empty result
// set is an error (ErrNoQuotes).
func (r *Registry) ComparisonQuotes(ctx context.Context, req *types.QuoteRequest) (*Comparison, error) {
	providers := r.All()
	results := make([]*types.Quote, len(providers))
	errs := make([]error, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p BridgeProvider) {
			defer wg.Done()
			results[i], errs[i] = p.GetQuote(ctx, req)
		}(i, p)
	}
	wg.Wait()

	quotes := make([]*types.Quote, 0, len(providers))
	for i := range providers {
		if errs[i] != nil {
			logger.WithFields(logger.Fields{
				"provider": providers[i].Name(),
				"error":    errs[i].Error(),
			}).Warn("provider quote failed")
			continue
		}
		quotes = append(quotes, results[i])
	}

	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}

	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.EstimatedOutputAmount.Cmp(best.EstimatedOutputAmount) > 0 {
			best = q
		}
	}

	return &Comparison{Quotes: quotes, Best: best}, nil
}
