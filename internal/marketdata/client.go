// Package marketdata provides the HTTP accessor for the upstream data
// hub, the service that owns market-data and news providers.
package marketdata

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// ClientConfig configures the data hub client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches price history from the data hub. Failures surface as
// errors the caller is expected to recover from by skipping the symbol.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a data hub client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.GetLogger("marketdata.client"),
	}
}

// GetMarketData fetches the bar series for a symbol.
func (c *Client) GetMarketData(ctx context.Context, symbol string) (*models.MarketData, error) {
	url := fmt.Sprintf("%s/api/market/bars/%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build market data request for %s", symbol)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.Timeout(fmt.Sprintf("market data request timed out for %s", symbol))
		}
		return nil, errors.Wrapf(err, "market data request failed for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound("no market data for " + symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Network(fmt.Sprintf("data hub returned %d for %s", resp.StatusCode, symbol))
	}

	var data models.MarketData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrapf(err, "failed to decode market data for %s", symbol)
	}
	if data.Symbol == "" {
		data.Symbol = symbol
	}
	return &data, nil
}
