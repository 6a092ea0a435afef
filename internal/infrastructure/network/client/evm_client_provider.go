package client

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
)

// ProviderConfig carries the RPC client tuning shared by all networks.
type ProviderConfig struct {
	ConnectionTimeout time.Duration
	CallTimeout       time.Duration
	RateLimit         rate.Limit // requests per second against one endpoint
	RateBurst         int
}

// evmClientProvider implements port.ChainReaderProvider. It caches one dialed
// client per network so repeated requests reuse connections.
type evmClientProvider struct {
	cfg     ProviderConfig
	clients map[string]port.ChainReader
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewEVMClientProvider creates a provider that dials networks lazily.
func NewEVMClientProvider(cfg ProviderConfig, logger *zap.Logger) port.ChainReaderProvider {
	return &evmClientProvider{
		cfg:     cfg,
		clients: make(map[string]port.ChainReader),
		logger:  logger.Named("EVMClientProvider"),
	}
}

// ReaderFor returns the cached reader for the network, dialing on first use.
func (p *evmClientProvider) ReaderFor(network entity.Network) (port.ChainReader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reader, exists := p.clients[network.Key]; exists {
		return reader, nil
	}

	p.logger.Info("Creating new EVM client", zap.String("network", network.Key))

	var limiter *rate.Limiter
	if p.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(p.cfg.RateLimit, p.cfg.RateBurst)
	}

	reader, err := NewEVMClient(network, p.cfg.ConnectionTimeout, p.cfg.CallTimeout, limiter, p.logger)
	if err != nil {
		p.logger.Error("Failed to create EVM client", zap.String("network", network.Key), zap.Error(err))
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", network.Key, err)
	}

	p.clients[network.Key] = reader
	return reader, nil
}
