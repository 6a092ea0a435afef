package cache

import "time"

// StoreConfig carries the TTL and capacity of each cache.
type StoreConfig struct {
	BalanceTTL      time.Duration
	BalanceCapacity int
	PriceTTL        time.Duration
	PriceCapacity   int
	FiatTTL         time.Duration
}

// Store groups the three independently-configured caches the aggregation
// engine depends on. It is built once at startup and injected, so tests get
// a fresh instance instead of sharing process-wide state.
type Store struct {
	// Balances caches combined balance+price snapshots keyed by
	// "<network>:<normalized address>".
	Balances *TTLCache
	// Prices caches USD price batches keyed by "<network>:<sorted symbols>".
	Prices *TTLCache
	// FiatRate caches the USD to ARS rate under a singleton key.
	FiatRate *TTLCache
}

// NewStore builds the cache store from cfg.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		Balances: New("balances", cfg.BalanceTTL, cfg.BalanceCapacity),
		Prices:   New("prices", cfg.PriceTTL, cfg.PriceCapacity),
		FiatRate: New("fiat_rate", cfg.FiatTTL, 1),
	}
}
