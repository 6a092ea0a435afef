package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balance_api/internal/domain/entity"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
networks:
  - key: polygon
    endpoint: https://polygon-mainnet.g.alchemy.com/v2/${ALCHEMY_API_KEY}
    chainID: 137
    tokens:
      - symbol: weth
        address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"
        decimals: 18
      - symbol: native
        native: true
        decimals: 18
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 60, cfg.Cache.BalanceTTLSeconds)
	assert.Equal(t, 1000, cfg.Cache.BalanceCapacity)
	assert.Equal(t, 600, cfg.Cache.PriceTTLSeconds)
	assert.Equal(t, 100, cfg.Cache.PriceCapacity)
	assert.Equal(t, 3600, cfg.Cache.FiatRateTTLSeconds)
	assert.Equal(t, "https://coins.llama.fi", cfg.PriceOracle.BaseURL)
	assert.Equal(t, "https://criptoya.com/api/binance/usdt/ars", cfg.FiatRates.URL)
	assert.Equal(t, 10, cfg.RPCClient.CallTimeoutSeconds)
	assert.Equal(t, 5, cfg.RPCClient.BurstLimit)
}

func TestLoad_ExplicitValuesSurviveDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: "9090"
cache:
  balanceTTLSeconds: 30
  priceCapacity: 7
`+minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Cache.BalanceTTLSeconds)
	assert.Equal(t, 7, cfg.Cache.PriceCapacity)
	assert.Equal(t, 600, cfg.Cache.PriceTTLSeconds)
}

func TestLoad_FailsWithoutNetworks(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: \"8000\"\n"))
	assert.Error(t, err)
}

func TestLoad_FailsOnNetworkWithoutEndpoint(t *testing.T) {
	_, err := Load(writeConfig(t, `
networks:
  - key: polygon
    tokens:
      - symbol: native
        native: true
        decimals: 18
`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestResolveNetworks_SubstitutesSecret(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	lookup := func(name string) (string, bool) {
		if name == "ALCHEMY_API_KEY" {
			return "test-key-123", true
		}
		return "", false
	}

	registry, err := ResolveNetworks(cfg, lookup)
	require.NoError(t, err)

	network, ok := registry.Network("polygon")
	require.True(t, ok)
	assert.Equal(t, "https://polygon-mainnet.g.alchemy.com/v2/test-key-123", network.RPCURL)
}

func TestResolveNetworks_MissingSecretFails(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	lookup := func(string) (string, bool) { return "", false }

	_, err = ResolveNetworks(cfg, lookup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrMissingConfig))
	assert.Contains(t, err.Error(), "ALCHEMY_API_KEY")
	assert.Contains(t, err.Error(), "polygon")
}

func TestResolveNetworks_EmptySecretFails(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	// An exported but empty variable still cannot produce a usable endpoint.
	lookup := func(string) (string, bool) { return "", true }

	_, err = ResolveNetworks(cfg, lookup)
	assert.True(t, errors.Is(err, entity.ErrMissingConfig))
}

func TestResolveNetworks_EndpointWithoutPlaceholder(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
networks:
  - key: scroll
    endpoint: https://rpc.scroll.io/
    chainID: 534352
    tokens:
      - symbol: native
        native: true
        decimals: 18
`))
	require.NoError(t, err)

	registry, err := ResolveNetworks(cfg, func(string) (string, bool) { return "", false })
	require.NoError(t, err)

	network, ok := registry.Network("scroll")
	require.True(t, ok)
	assert.Equal(t, "https://rpc.scroll.io/", network.RPCURL)
}

func TestResolveNetworks_TokenKinds(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
networks:
  - key: scroll
    endpoint: https://rpc.scroll.io/
    tokens:
      - symbol: weth
        address: "0x5300000000000000000000000000000000000004"
        decimals: 18
      - symbol: native
        native: true
        decimals: 18
      - symbol: legacy_native
        address: "0x0000000000000000000000000000000000000000"
        decimals: 18
`))
	require.NoError(t, err)

	registry, err := ResolveNetworks(cfg, func(string) (string, bool) { return "", false })
	require.NoError(t, err)

	tokens := registry["scroll"].Tokens

	weth := tokens["weth"]
	assert.Equal(t, entity.TokenKindERC20, weth.Kind)
	assert.False(t, weth.IsNative())
	assert.Equal(t, "0x5300000000000000000000000000000000000004", weth.Address())

	native := tokens["native"]
	assert.Equal(t, entity.TokenKindNative, native.Kind)
	assert.True(t, native.IsNative())
	assert.Equal(t, entity.ZeroAddress, native.Address())

	// The zero address is an alternate spelling for the native coin.
	assert.Equal(t, entity.TokenKindNative, tokens["legacy_native"].Kind)
}

func TestResolveNetworks_DuplicateTokenFails(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
networks:
  - key: scroll
    endpoint: https://rpc.scroll.io/
    tokens:
      - symbol: weth
        address: "0x5300000000000000000000000000000000000004"
        decimals: 18
      - symbol: weth
        address: "0x5300000000000000000000000000000000000004"
        decimals: 18
`))
	require.NoError(t, err)

	_, err = ResolveNetworks(cfg, func(string) (string, bool) { return "", false })
	assert.Error(t, err)
}
