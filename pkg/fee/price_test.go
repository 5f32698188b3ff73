package fee

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"swapd/pkg/types"
)

func priceServer(t *testing.T, calls *atomic.Int32, price string, failAfter int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if failAfter > 0 && n > failAfter {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"data":{"%s":{"price":"%s"}}}`, types.SOLNativeMint, price)
	}))
}

func TestSolPriceUsdcCachesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	server := priceServer(t, &calls, "153.42", 0)
	defer server.Close()

	oracle := NewJupiterOracle(server.URL, time.Second)
	ctx := context.Background()

	first, err := oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)
	require.Equal(t, 153.42, first)

	second, err := oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), calls.Load())
}

func TestSolPriceUsdcRefetchesAfterTTL(t *testing.T) {
	var calls atomic.Int32
	server := priceServer(t, &calls, "153.42", 0)
	defer server.Close()

	oracle := NewJupiterOracle(server.URL, time.Second)
	oracle.ttl = 10 * time.Millisecond
	ctx := context.Background()

	_, err := oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestSolPriceUsdcServesStaleOnRefreshFailure(t *testing.T) {
	var calls atomic.Int32
	server := priceServer(t, &calls, "160.00", 1)
	defer server.Close()

	oracle := NewJupiterOracle(server.URL, time.Second)
	oracle.ttl = time.Nanosecond
	ctx := context.Background()

	first, err := oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)
	require.Equal(t, 160.0, first)

	// The refresh now fails; the cached value is still served.
	stale, err := oracle.SolPriceUsdc(ctx)
	require.NoError(t, err)
	require.Equal(t, first, stale)
}

func TestSolPriceUsdcErrorsWithEmptyCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	oracle := NewJupiterOracle(server.URL, time.Second)
	_, err := oracle.SolPriceUsdc(context.Background())
	require.Error(t, err)
}

func TestSolPriceUsdcRejectsNonPositivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"%s":{"price":"0"}}}`, types.SOLNativeMint)
	}))
	defer server.Close()

	oracle := NewJupiterOracle(server.URL, time.Second)
	_, err := oracle.SolPriceUsdc(context.Background())
	require.Error(t, err)
}
