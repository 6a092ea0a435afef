// Package configloader reads the YAML configuration and resolves it into the
// immutable network registry the rest of the application consumes.
package configloader

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"balance_api/internal/domain/entity"
)

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// CacheConfig holds TTLs and capacity bounds for the three caches.
type CacheConfig struct {
	BalanceTTLSeconds  int `yaml:"balanceTTLSeconds"`
	BalanceCapacity    int `yaml:"balanceCapacity"`
	PriceTTLSeconds    int `yaml:"priceTTLSeconds"`
	PriceCapacity      int `yaml:"priceCapacity"`
	FiatRateTTLSeconds int `yaml:"fiatRateTTLSeconds"`
}

// PriceOracleConfig holds the configuration for the DefiLlama client.
type PriceOracleConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// FiatRatesConfig holds the configuration for the CriptoYa client.
type FiatRatesConfig struct {
	URL                  string `yaml:"url"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// RPCClientConfig holds tuning for the per-network RPC clients.
type RPCClientConfig struct {
	ConnectionTimeoutSeconds int     `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int     `yaml:"callTimeoutSeconds"`
	RateLimit                float64 `yaml:"rateLimit"` // requests per second, 0 disables
	BurstLimit               int     `yaml:"burstLimit"`
}

// TokenConfig describes one tracked token of a network.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
	Native   bool   `yaml:"native"`
}

// NetworkConfig describes one supported network. Endpoint may carry
// ${VAR} placeholders resolved against the environment at startup.
type NetworkConfig struct {
	Key      string        `yaml:"key"`
	Logo     string        `yaml:"logo"`
	Endpoint string        `yaml:"endpoint"`
	ChainID  int64         `yaml:"chainID"`
	Explorer string        `yaml:"explorer"`
	Tokens   []TokenConfig `yaml:"tokens"`
}

// Config holds the overall configuration for the application.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Cache       CacheConfig       `yaml:"cache"`
	PriceOracle PriceOracleConfig `yaml:"priceOracle"`
	FiatRates   FiatRatesConfig   `yaml:"fiatRates"`
	RPCClient   RPCClientConfig   `yaml:"rpcClient"`
	Networks    []NetworkConfig   `yaml:"networks"`
}

// Load reads the YAML configuration file and applies defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Cache.BalanceTTLSeconds == 0 {
		cfg.Cache.BalanceTTLSeconds = 60
	}
	if cfg.Cache.BalanceCapacity == 0 {
		cfg.Cache.BalanceCapacity = 1000
	}
	if cfg.Cache.PriceTTLSeconds == 0 {
		cfg.Cache.PriceTTLSeconds = 600
	}
	if cfg.Cache.PriceCapacity == 0 {
		cfg.Cache.PriceCapacity = 100
	}
	if cfg.Cache.FiatRateTTLSeconds == 0 {
		cfg.Cache.FiatRateTTLSeconds = 3600
	}

	if cfg.PriceOracle.BaseURL == "" {
		cfg.PriceOracle.BaseURL = "https://coins.llama.fi"
		logrus.Infof("PriceOracle.BaseURL not set, defaulting to %s", cfg.PriceOracle.BaseURL)
	}
	if cfg.PriceOracle.RequestTimeoutMillis == 0 {
		cfg.PriceOracle.RequestTimeoutMillis = 10000
	}

	if cfg.FiatRates.URL == "" {
		cfg.FiatRates.URL = "https://criptoya.com/api/binance/usdt/ars"
		logrus.Infof("FiatRates.URL not set, defaulting to %s", cfg.FiatRates.URL)
	}
	if cfg.FiatRates.RequestTimeoutMillis == 0 {
		cfg.FiatRates.RequestTimeoutMillis = 10000
	}

	if cfg.RPCClient.ConnectionTimeoutSeconds == 0 {
		cfg.RPCClient.ConnectionTimeoutSeconds = 10
	}
	if cfg.RPCClient.CallTimeoutSeconds == 0 {
		cfg.RPCClient.CallTimeoutSeconds = 10
	}
	if cfg.RPCClient.BurstLimit == 0 {
		cfg.RPCClient.BurstLimit = 5
	}

	if len(cfg.Networks) == 0 {
		return nil, fmt.Errorf("no networks defined in %s", path)
	}
	for _, network := range cfg.Networks {
		if network.Key == "" || network.Endpoint == "" {
			return nil, fmt.Errorf("network entries need both key and endpoint (key=%q)", network.Key)
		}
		if len(network.Tokens) == 0 {
			logrus.Warnf("Network %q has no tokens configured", network.Key)
		}
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveNetworks substitutes secrets into endpoint templates and builds the
// immutable registry. lookup is usually os.LookupEnv; a referenced variable
// that is absent fails with entity.ErrMissingConfig so an unresolved template
// can never reach a live RPC call.
func ResolveNetworks(cfg *Config, lookup func(string) (string, bool)) (entity.Registry, error) {
	registry := make(entity.Registry, len(cfg.Networks))

	for _, nc := range cfg.Networks {
		endpoint, err := resolveEndpoint(nc.Key, nc.Endpoint, lookup)
		if err != nil {
			return nil, err
		}

		tokens := make(map[string]entity.Token, len(nc.Tokens))
		for _, tc := range nc.Tokens {
			if tc.Symbol == "" {
				return nil, fmt.Errorf("network %q has a token without a symbol", nc.Key)
			}
			if _, dup := tokens[tc.Symbol]; dup {
				return nil, fmt.Errorf("network %q defines token %q twice", nc.Key, tc.Symbol)
			}
			tokens[tc.Symbol] = resolveToken(tc)
		}

		registry[nc.Key] = entity.Network{
			Key:      nc.Key,
			Logo:     nc.Logo,
			ChainID:  nc.ChainID,
			Explorer: nc.Explorer,
			RPCURL:   endpoint,
			Tokens:   tokens,
		}
	}

	return registry, nil
}

func resolveEndpoint(networkKey, template string, lookup func(string) (string, bool)) (string, error) {
	var missing string
	resolved := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := lookup(name)
		if !ok || value == "" {
			missing = name
			return match
		}
		return value
	})
	if missing != "" {
		return "", fmt.Errorf("%w: %s required by network %q endpoint is not set",
			entity.ErrMissingConfig, missing, networkKey)
	}
	return resolved, nil
}

func resolveToken(tc TokenConfig) entity.Token {
	// The zero address is the legacy way configs mark the native coin; honor
	// it alongside the explicit flag.
	if tc.Native || strings.EqualFold(tc.Address, entity.ZeroAddress) {
		return entity.Token{
			Symbol:   tc.Symbol,
			Kind:     entity.TokenKindNative,
			Decimals: tc.Decimals,
		}
	}
	return entity.Token{
		Symbol:   tc.Symbol,
		Kind:     entity.TokenKindERC20,
		Contract: tc.Address,
		Decimals: tc.Decimals,
	}
}
