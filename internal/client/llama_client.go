// Package client holds the thin HTTP clients for external price providers.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const llamaProviderName = "defillama"

// llamaPriceResponse mirrors the DefiLlama /prices/current response body.
type llamaPriceResponse struct {
	Coins map[string]struct {
		Price     float64 `json:"price"`
		Symbol    string  `json:"symbol"`
		Timestamp int64   `json:"timestamp"`
	} `json:"coins"`
}

// LlamaClient fetches current USD prices from the DefiLlama coins API. One
// request covers a whole batch of "<network>:<address>" keys, so a network's
// full token set costs a single round trip.
type LlamaClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewLlamaClient creates a client for the given base URL (e.g.
// "https://coins.llama.fi").
func NewLlamaClient(baseURL string, timeout time.Duration, logger *zap.Logger) port.PriceClient {
	return &LlamaClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("LlamaClient"),
	}
}

// CurrentPrices implements port.PriceClient. Keys the oracle has no quote for
// are absent from the returned map; the caller decides how to default them.
func (c *LlamaClient) CurrentPrices(ctx context.Context, coinKeys []string) (map[string]float64, error) {
	if len(coinKeys) == 0 {
		return nil, fmt.Errorf("coinKeys cannot be empty")
	}

	requestURL := fmt.Sprintf("%s/prices/current/%s", c.baseURL, strings.ToLower(strings.Join(coinKeys, ",")))
	c.logger.Debug("Requesting current prices", zap.String("url", requestURL))

	body, err := c.doGet(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed llamaPriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("Failed to unmarshal price response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", body),
			zap.Error(err))
		return nil, entity.NewUpstreamError(llamaProviderName,
			fmt.Errorf("failed to unmarshal price response: %w", err))
	}

	prices := make(map[string]float64, len(parsed.Coins))
	for key, coin := range parsed.Coins {
		prices[strings.ToLower(key)] = coin.Price
	}

	c.logger.Debug("Fetched current prices", zap.Int("requested", len(coinKeys)), zap.Int("quoted", len(prices)))
	return prices, nil
}

func (c *LlamaClient) doGet(ctx context.Context, requestURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.ObserveUpstream(llamaProviderName, time.Since(start), err)

	if err != nil {
		c.logger.Error("Failed to execute price request", zap.String("url", requestURL), zap.Error(err))
		return nil, entity.NewUpstreamError(llamaProviderName,
			fmt.Errorf("failed to execute request to %s: %w", requestURL, err))
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Price API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, entity.NewUpstreamError(llamaProviderName,
			fmt.Errorf("request to %s failed with status %d", requestURL, resp.StatusCode()))
	}

	// The response buffer is reused after release; copy it out.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
