package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/internal/pkg/addrutil"
	"balance_api/internal/pkg/cache"
)

// BalanceServiceImpl implements port.BalanceService. It orchestrates the
// chain readers, the price service and the cache layer for single-network
// requests, and fans out over all registered networks for aggregates.
type BalanceServiceImpl struct {
	registry       entity.Registry
	readerProvider port.ChainReaderProvider
	prices         port.PriceService
	caches         *cache.Store
	logger         *zap.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(
	registry entity.Registry,
	readerProvider port.ChainReaderProvider,
	prices port.PriceService,
	caches *cache.Store,
	logger *zap.Logger,
) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		registry:       registry,
		readerProvider: readerProvider,
		prices:         prices,
		caches:         caches,
		logger:         logger.Named("BalanceService"),
	}
}

// GetBalance implements port.BalanceService. Validation happens before any
// cache or network access; on a cache miss the chain read and the price
// lookup run concurrently and are joined before combining.
func (s *BalanceServiceImpl) GetBalance(ctx context.Context, address, networkKey string) (entity.TokenBalances, error) {
	normalized, err := addrutil.Normalize(address)
	if err != nil {
		return nil, err
	}

	network, ok := s.registry.Network(networkKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedNetwork, networkKey)
	}

	cacheKey := network.Key + ":" + normalized
	if cached, ok := s.caches.Balances.Get(cacheKey); ok {
		return cached.(entity.TokenBalances), nil
	}

	var (
		rawBalances map[string]*big.Int
		unitPrices  map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reader, err := s.readerProvider.ReaderFor(network)
		if err != nil {
			return err
		}
		rawBalances, err = reader.FetchRawBalances(gctx, normalized)
		return err
	})
	g.Go(func() error {
		var err error
		unitPrices, err = s.prices.PricesFor(gctx, network)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to fetch balance",
			zap.String("wallet", normalized),
			zap.String("network", network.Key),
			zap.Error(err))
		return nil, err
	}

	balances := make(entity.TokenBalances, len(network.Tokens))
	for symbol, token := range network.Tokens {
		raw := rawBalances[symbol]
		if raw == nil {
			raw = big.NewInt(0)
		}
		balances[symbol] = entity.BalanceEntry{
			Amount:   decimal.NewFromBigInt(raw, -int32(token.Decimals)),
			PriceUSD: decimal.NewFromFloat(unitPrices[symbol]),
		}
	}

	s.caches.Balances.Put(cacheKey, balances)
	return balances, nil
}

// GetBalanceAllNetworks implements port.BalanceService. Each network is
// fetched independently; one network failing is recorded as its error marker
// and never aborts the others. Totals sum only successful networks.
func (s *BalanceServiceImpl) GetBalanceAllNetworks(ctx context.Context, address string) (*entity.AggregateResult, error) {
	normalized, err := addrutil.Normalize(address)
	if err != nil {
		return nil, err
	}

	results := make(map[string]entity.NetworkResult, len(s.registry))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range s.registry.Keys() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			balances, err := s.GetBalance(ctx, normalized, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("Network fetch failed in aggregate",
					zap.String("wallet", normalized),
					zap.String("network", key),
					zap.Error(err))
				results[key] = entity.NetworkResult{Err: err.Error()}
				return
			}
			results[key] = entity.NetworkResult{Tokens: balances}
		}(key)
	}
	wg.Wait()

	totalUSD := decimal.Zero
	for _, result := range results {
		if !result.Failed() {
			totalUSD = totalUSD.Add(result.Tokens.ValueUSD())
		}
	}

	fiatRate, err := s.prices.FiatRate(ctx)
	if err != nil {
		return nil, err
	}
	totalARS := totalUSD.Mul(decimal.NewFromFloat(fiatRate))

	return &entity.AggregateResult{
		Address:       normalized,
		Balances:      results,
		TotalValueUSD: totalUSD.InexactFloat64(),
		TotalValueARS: totalARS.InexactFloat64(),
	}, nil
}
