package fee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"swapd/logger"
	"swapd/pkg/types"
)

// PriceSource supplies the current SOL price in USDC.
type PriceSource interface {
	SolPriceUsdc(ctx context.Context) (float64, error)
}

// priceCacheTTL is the freshness window for the cached SOL price.
const priceCacheTTL = 10 * time.Second

// JupiterOracle reads the SOL/USDC price from the Jupiter price API and
// caches it. A stale cached value is served when a refresh fails; with an
// empty cache a failure is an error, never a default price.
type JupiterOracle struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration

	mu        sync.Mutex
	price     float64
	fetchedAt time.Time
}

// NewJupiterOracle creates a price oracle. Retries are acceptable here;
// the oracle is not on the quote/execution no-retry path.
func NewJupiterOracle(baseURL string, timeout time.Duration) *JupiterOracle {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &JupiterOracle{
		baseURL: baseURL,
		http:    rc.StandardClient(),
		ttl:     priceCacheTTL,
	}
}

var _ PriceSource = (*JupiterOracle)(nil)

// SolPriceUsdc returns the cached price when fresh, otherwise refetches.
func (o *JupiterOracle) SolPriceUsdc(ctx context.Context) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.price > 0 && time.Since(o.fetchedAt) < o.ttl {
		return o.price, nil
	}

	price, err := o.fetch(ctx)
	if err != nil {
		if o.price > 0 {
			// Acceptable staleness: the calculator rounds in the
			// sponsor's favor.
			logger.WithField("error", err.Error()).Warn("price refresh failed, serving stale value")
			return o.price, nil
		}
		return 0, fmt.Errorf("fetch sol price: %w", err)
	}

	o.price = price
	o.fetchedAt = time.Now()
	return price, nil
}

func (o *JupiterOracle) fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s?ids=%s", o.baseURL, types.SOLNativeMint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var body struct {
		Data map[string]struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}

	entry, ok := body.Data[types.SOLNativeMint]
	if !ok {
		return 0, fmt.Errorf("price response missing SOL entry")
	}
	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid price %q", entry.Price)
	}
	return price, nil
}
