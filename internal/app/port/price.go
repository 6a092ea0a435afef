package port

import (
	"context"

	"balance_api/internal/domain/entity"
)

// PriceClient is the raw price oracle transport. Keys are
// "<network>:<contract address>" pairs with the native coin represented by
// the zero address. The returned map contains only the keys the oracle had a
// quote for.
type PriceClient interface {
	CurrentPrices(ctx context.Context, coinKeys []string) (map[string]float64, error)
}

// FiatRateClient fetches the USD to ARS exchange rate.
type FiatRateClient interface {
	USDARSRate(ctx context.Context) (float64, error)
}

// PriceService resolves USD unit prices for a network's token set, caching
// batches so repeated lookups within the TTL window never hit the oracle.
type PriceService interface {
	// PricesFor returns the USD unit price of every token on the network,
	// keyed by symbol. A token with no quote maps to 0.
	PricesFor(ctx context.Context, network entity.Network) (map[string]float64, error)

	// AllPrices returns PricesFor of every registered network, keyed by
	// network key.
	AllPrices(ctx context.Context) (map[string]map[string]float64, error)

	// FiatRate returns the cached-or-fetched USD to ARS rate.
	FiatRate(ctx context.Context) (float64, error)
}
