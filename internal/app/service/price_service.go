package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/internal/pkg/cache"
)

const fiatRateCacheKey = "USD_ARS"

// PriceServiceImpl implements port.PriceService on top of the price oracle
// client and the price-batch cache.
type PriceServiceImpl struct {
	registry    entity.Registry
	priceClient port.PriceClient
	fiatClient  port.FiatRateClient
	caches      *cache.Store
	logger      *zap.Logger
}

// NewPriceService creates a new PriceServiceImpl.
func NewPriceService(
	registry entity.Registry,
	priceClient port.PriceClient,
	fiatClient port.FiatRateClient,
	caches *cache.Store,
	logger *zap.Logger,
) *PriceServiceImpl {
	return &PriceServiceImpl{
		registry:    registry,
		priceClient: priceClient,
		fiatClient:  fiatClient,
		caches:      caches,
		logger:      logger.Named("PriceService"),
	}
}

// PricesFor implements port.PriceService. One batched oracle request covers
// the network's whole token set; the batch is cached under the network key
// plus the sorted symbol list so logically-identical requests always hit.
func (s *PriceServiceImpl) PricesFor(ctx context.Context, network entity.Network) (map[string]float64, error) {
	symbols := network.TokenSymbols()
	cacheKey := network.Key + ":" + strings.Join(symbols, ",")

	if cached, ok := s.caches.Prices.Get(cacheKey); ok {
		return cached.(map[string]float64), nil
	}

	coinKeys := make([]string, len(symbols))
	for i, symbol := range symbols {
		coinKeys[i] = priceKey(network, network.Tokens[symbol])
	}

	quoted, err := s.priceClient.CurrentPrices(ctx, coinKeys)
	if err != nil {
		return nil, err
	}

	// A token the oracle had no quote for maps to 0 rather than being
	// omitted, so every symbol is always present in the result.
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		prices[symbol] = quoted[priceKey(network, network.Tokens[symbol])]
	}

	s.caches.Prices.Put(cacheKey, prices)
	s.logger.Debug("Fetched and cached token prices",
		zap.String("network", network.Key),
		zap.Int("tokens", len(prices)))
	return prices, nil
}

// AllPrices implements port.PriceService.
func (s *PriceServiceImpl) AllPrices(ctx context.Context) (map[string]map[string]float64, error) {
	all := make(map[string]map[string]float64, len(s.registry))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, key := range s.registry.Keys() {
		network := s.registry[key]
		wg.Add(1)
		go func(network entity.Network) {
			defer wg.Done()
			prices, err := s.PricesFor(ctx, network)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			all[network.Key] = prices
		}(network)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

// FiatRate implements port.PriceService.
func (s *PriceServiceImpl) FiatRate(ctx context.Context) (float64, error) {
	if cached, ok := s.caches.FiatRate.Get(fiatRateCacheKey); ok {
		return cached.(float64), nil
	}

	rate, err := s.fiatClient.USDARSRate(ctx)
	if err != nil {
		return 0, err
	}

	s.caches.FiatRate.Put(fiatRateCacheKey, rate)
	s.logger.Debug("Fetched and cached USD/ARS rate", zap.Float64("rate", rate))
	return rate, nil
}

// priceKey builds the oracle lookup key for one token. The native coin goes
// on the wire as the zero address.
func priceKey(network entity.Network, token entity.Token) string {
	return network.Key + ":" + strings.ToLower(token.Address())
}
