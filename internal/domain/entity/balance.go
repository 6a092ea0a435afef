package entity

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// BalanceEntry is the balance of a single token together with its USD unit
// price. Amount is the human-readable quantity (raw on-chain integer divided
// by 10^decimals). A token the price oracle has no quote for carries price 0.
type BalanceEntry struct {
	Amount   decimal.Decimal
	PriceUSD decimal.Decimal
}

// MarshalJSON renders the entry as the two-element [amount, price] pair the
// API has always returned.
func (e BalanceEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(e.Amount.String())
	buf.WriteByte(',')
	buf.WriteString(e.PriceUSD.String())
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// TokenBalances maps token symbol to its balance entry for one network.
type TokenBalances map[string]BalanceEntry

// ValueUSD sums amount times unit price over all entries.
func (b TokenBalances) ValueUSD() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range b {
		total = total.Add(entry.Amount.Mul(entry.PriceUSD))
	}
	return total
}

// NetworkResult is one network's slice of an all-networks aggregate: either
// the token balances or an error marker when that network's fetch failed.
// The marker lets clients distinguish "zero balance" from "fetch failed".
type NetworkResult struct {
	Tokens TokenBalances
	Err    string
}

// Failed reports whether this network's fetch failed.
func (r NetworkResult) Failed() bool {
	return r.Err != ""
}

// MarshalJSON emits the token map on success and {"error": ...} on failure.
func (r NetworkResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Err})
	}
	return json.Marshal(r.Tokens)
}

// AggregateResult is the combined valuation of an address across every
// registered network.
type AggregateResult struct {
	Address       string                   `json:"address"`
	Balances      map[string]NetworkResult `json:"balances"`
	TotalValueUSD float64                  `json:"totalValueUSD"`
	TotalValueARS float64                  `json:"totalValueARS"`
}
