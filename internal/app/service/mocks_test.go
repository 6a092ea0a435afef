package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/internal/pkg/cache"
)

// fakeClock drives the cache TTL windows in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(clock *fakeClock) *cache.Store {
	return &cache.Store{
		Balances: cache.New("balances", 60*time.Second, 1000).WithClock(clock.Now),
		Prices:   cache.New("prices", 600*time.Second, 100).WithClock(clock.Now),
		FiatRate: cache.New("fiat_rate", 3600*time.Second, 1).WithClock(clock.Now),
	}
}

func testRegistry() entity.Registry {
	return entity.Registry{
		"polygon": {
			Key:      "polygon",
			Logo:     "https://cryptofonts.com/img/SVG/matic.svg",
			ChainID:  137,
			Explorer: "https://polygonscan.com",
			RPCURL:   "https://polygon.example",
			Tokens: map[string]entity.Token{
				"weth":   {Symbol: "weth", Kind: entity.TokenKindERC20, Contract: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
				"usdc":   {Symbol: "usdc", Kind: entity.TokenKindERC20, Contract: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
				"native": {Symbol: "native", Kind: entity.TokenKindNative, Decimals: 18},
			},
		},
		"scroll": {
			Key:      "scroll",
			ChainID:  534352,
			Explorer: "https://scrollscan.com",
			RPCURL:   "https://scroll.example",
			Tokens: map[string]entity.Token{
				"weth":   {Symbol: "weth", Kind: entity.TokenKindERC20, Contract: "0x5300000000000000000000000000000000000004", Decimals: 18},
				"native": {Symbol: "native", Kind: entity.TokenKindNative, Decimals: 18},
			},
		},
	}
}

// stubReader implements port.ChainReader with canned balances.
type stubReader struct {
	network  entity.Network
	balances map[string]*big.Int
	err      error
	calls    int32
}

func (r *stubReader) FetchRawBalances(_ context.Context, _ string) (map[string]*big.Int, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.err != nil {
		return nil, r.err
	}
	return r.balances, nil
}

func (r *stubReader) Network() entity.Network {
	return r.network
}

func (r *stubReader) callCount() int {
	return int(atomic.LoadInt32(&r.calls))
}

// stubReaderProvider hands out stub readers per network key.
type stubReaderProvider struct {
	readers map[string]*stubReader
}

func (p *stubReaderProvider) ReaderFor(network entity.Network) (port.ChainReader, error) {
	reader, ok := p.readers[network.Key]
	if !ok {
		return nil, fmt.Errorf("no reader configured for %s", network.Key)
	}
	return reader, nil
}

func (p *stubReaderProvider) totalCalls() int {
	total := 0
	for _, reader := range p.readers {
		total += reader.callCount()
	}
	return total
}

// stubPriceClient implements port.PriceClient with canned quotes keyed by
// "<network>:<address>".
type stubPriceClient struct {
	quotes map[string]float64
	err    error
	calls  int32
}

func (c *stubPriceClient) CurrentPrices(_ context.Context, _ []string) (map[string]float64, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	return c.quotes, nil
}

func (c *stubPriceClient) callCount() int {
	return int(atomic.LoadInt32(&c.calls))
}

// stubFiatClient implements port.FiatRateClient.
type stubFiatClient struct {
	rate  float64
	err   error
	calls int32
}

func (c *stubFiatClient) USDARSRate(_ context.Context) (float64, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return 0, c.err
	}
	return c.rate, nil
}

func (c *stubFiatClient) callCount() int {
	return int(atomic.LoadInt32(&c.calls))
}
