package port

import (
	"context"
	"math/big"

	"balance_api/internal/domain/entity"
)

// ChainReader reads raw on-chain balances for one network. Implementations
// are read-only and safe for concurrent use.
type ChainReader interface {
	// FetchRawBalances returns the raw integer balance of every token in the
	// reader's network for the given normalized address, keyed by symbol.
	// It either succeeds for the whole token set or fails with an upstream
	// error; no partial per-token results are returned.
	FetchRawBalances(ctx context.Context, address string) (map[string]*big.Int, error)

	// Network returns the network this reader serves.
	Network() entity.Network
}

// ChainReaderProvider hands out (and caches) chain readers per network.
type ChainReaderProvider interface {
	ReaderFor(network entity.Network) (ChainReader, error)
}
