package entity

import "sort"

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenKind distinguishes the chain's native coin from ERC20 contracts.
type TokenKind int

const (
	// TokenKindNative is the chain's base currency (gas token), not backed by a contract.
	TokenKindNative TokenKind = iota
	// TokenKindERC20 is a standard token contract with a balanceOf entry point.
	TokenKindERC20
)

// Token describes a single tracked asset on a network.
type Token struct {
	Symbol   string
	Kind     TokenKind
	Contract string // 20-byte hex address; empty for the native coin
	Decimals uint8
}

// IsNative reports whether the token is the chain's native coin.
func (t Token) IsNative() bool {
	return t.Kind == TokenKindNative
}

// Address returns the on-wire address for the token. The native coin is
// represented by the zero address, which is what price oracles expect.
func (t Token) Address() string {
	if t.IsNative() {
		return ZeroAddress
	}
	return t.Contract
}

// Network holds the fully-resolved, immutable definition of a supported
// blockchain network. RPCURL has already had any secret substituted into it;
// an unresolved template never reaches a live client.
type Network struct {
	Key      string // registry identifier, e.g. "polygon"
	Logo     string
	ChainID  int64
	Explorer string
	RPCURL   string
	Tokens   map[string]Token // keyed by symbol
}

// TokenSymbols returns the network's token symbols in sorted order.
// Sorted output keeps cache keys and batch requests deterministic.
func (n Network) TokenSymbols() []string {
	symbols := make([]string, 0, len(n.Tokens))
	for symbol := range n.Tokens {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Registry is the static table of supported networks, loaded once at startup.
type Registry map[string]Network

// Network looks up a network by its registry key.
func (r Registry) Network(key string) (Network, bool) {
	n, ok := r[key]
	return n, ok
}

// Keys returns all registry keys in sorted order.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
