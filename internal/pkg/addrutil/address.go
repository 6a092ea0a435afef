// Package addrutil validates and normalizes wallet addresses. The normalized
// (EIP-55 checksummed) form is the only one used as a cache or lookup key.
package addrutil

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"balance_api/internal/domain/entity"
)

// Normalize validates addr and returns its EIP-55 checksummed form.
// Input is accepted in any hex casing; malformed input (wrong length,
// non-hex characters) fails with entity.ErrInvalidAddress before any
// network access can happen.
func Normalize(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidAddress, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}
