// Package restapi exposes the balance aggregation engine over HTTP.
package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
)

// BalanceHandler translates HTTP requests into service calls and maps domain
// errors onto status codes.
type BalanceHandler struct {
	balances port.BalanceService
	prices   port.PriceService
	registry entity.Registry
	logger   *zap.Logger
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(
	balances port.BalanceService,
	prices port.PriceService,
	registry entity.Registry,
	logger *zap.Logger,
) *BalanceHandler {
	return &BalanceHandler{
		balances: balances,
		prices:   prices,
		registry: registry,
		logger:   logger.Named("BalanceHandler"),
	}
}

// GetBalanceHandler handles GET /api/balance/:address?network={name|all}.
func (h *BalanceHandler) GetBalanceHandler(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")
	network := c.Query("network")

	if network == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "network query parameter is required"})
		return
	}

	if network == "all" {
		aggregate, err := h.balances.GetBalanceAllNetworks(ctx, address)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, aggregate)
		return
	}

	balances, err := h.balances.GetBalance(ctx, address, network)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// GetPricesHandler handles GET /api/prices.
func (h *BalanceHandler) GetPricesHandler(c *gin.Context) {
	prices, err := h.prices.AllPrices(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

// GetFiatPricesHandler handles GET /api/fiat-prices.
func (h *BalanceHandler) GetFiatPricesHandler(c *gin.Context) {
	rate, err := h.prices.FiatRate(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"USD_ARS": rate})
}

// GetNetworksHandler handles GET /api/networks: a static registry dump.
func (h *BalanceHandler) GetNetworksHandler(c *gin.Context) {
	networks := make(map[string]gin.H, len(h.registry))
	for _, key := range h.registry.Keys() {
		network := h.registry[key]
		tokens := make(map[string]gin.H, len(network.Tokens))
		for symbol, token := range network.Tokens {
			tokens[symbol] = gin.H{
				"address":  token.Address(),
				"decimals": token.Decimals,
			}
		}
		networks[key] = gin.H{
			"logo":     network.Logo,
			"chainId":  network.ChainID,
			"explorer": network.Explorer,
			"tokens":   tokens,
		}
	}
	c.JSON(http.StatusOK, networks)
}

// HealthHandler handles GET /health.
func (h *BalanceHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *BalanceHandler) writeError(c *gin.Context, err error) {
	var upstream *entity.UpstreamError
	switch {
	case errors.Is(err, entity.ErrInvalidAddress), errors.Is(err, entity.ErrUnsupportedNetwork):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
	default:
		h.logger.Error("Unhandled error in request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
