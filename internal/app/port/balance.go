package port

import (
	"context"

	"balance_api/internal/domain/entity"
)

// BalanceService is the aggregation engine: it combines chain reads, price
// lookups and the cache layer into balance valuations.
type BalanceService interface {
	// GetBalance returns the balance and USD unit price of every token the
	// registry tracks on the named network. Fails with
	// entity.ErrInvalidAddress, entity.ErrUnsupportedNetwork or an
	// *entity.UpstreamError.
	GetBalance(ctx context.Context, address, network string) (entity.TokenBalances, error)

	// GetBalanceAllNetworks aggregates GetBalance over every registered
	// network. A single network's failure is captured as that network's
	// error marker and does not abort the others.
	GetBalanceAllNetworks(ctx context.Context, address string) (*entity.AggregateResult, error)
}
