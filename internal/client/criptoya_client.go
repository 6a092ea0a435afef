package client

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/pkg/metrics"
)

const criptoYaProviderName = "criptoya"

// criptoYaResponse is the subset of the CriptoYa ticker we care about.
// totalAsk is the effective USDT->ARS ask price including exchange fees.
type criptoYaResponse struct {
	Ask      float64 `json:"ask"`
	TotalAsk float64 `json:"totalAsk"`
	Bid      float64 `json:"bid"`
	TotalBid float64 `json:"totalBid"`
	Time     int64   `json:"time"`
}

// CriptoYaClient fetches the USD to ARS exchange rate from the CriptoYa API.
type CriptoYaClient struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCriptoYaClient creates a client for the given ticker URL (e.g.
// "https://criptoya.com/api/binance/usdt/ars").
func NewCriptoYaClient(url string, timeout time.Duration, logger *zap.Logger) port.FiatRateClient {
	return &CriptoYaClient{
		client:  &fasthttp.Client{},
		url:     url,
		timeout: timeout,
		logger:  logger.Named("CriptoYaClient"),
	}
}

// USDARSRate implements port.FiatRateClient.
func (c *CriptoYaClient) USDARSRate(ctx context.Context) (float64, error) {
	c.logger.Debug("Requesting USD/ARS rate", zap.String("url", c.url))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
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
	metrics.ObserveUpstream(criptoYaProviderName, time.Since(start), err)

	if err != nil {
		c.logger.Error("Failed to execute fiat rate request", zap.String("url", c.url), zap.Error(err))
		return 0, entity.NewUpstreamError(criptoYaProviderName,
			fmt.Errorf("failed to execute request to %s: %w", c.url, err))
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Fiat rate API request failed",
			zap.String("url", c.url),
			zap.Int("statusCode", resp.StatusCode()))
		return 0, entity.NewUpstreamError(criptoYaProviderName,
			fmt.Errorf("request to %s failed with status %d", c.url, resp.StatusCode()))
	}

	var parsed criptoYaResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		c.logger.Error("Failed to unmarshal fiat rate response",
			zap.ByteString("responseBody", resp.Body()),
			zap.Error(err))
		return 0, entity.NewUpstreamError(criptoYaProviderName,
			fmt.Errorf("failed to unmarshal fiat rate response: %w", err))
	}

	if parsed.TotalAsk <= 0 {
		return 0, entity.NewUpstreamError(criptoYaProviderName,
			fmt.Errorf("fiat rate response carried non-positive totalAsk: %f", parsed.TotalAsk))
	}

	c.logger.Debug("Fetched USD/ARS rate", zap.Float64("totalAsk", parsed.TotalAsk))
	return parsed.TotalAsk, nil
}
