// Package currency fetches the EUR to DKK conversion rate from the free
// fawazahmed0 currency-api. It is only consulted on days where the upstream
// price records lack a native DKK price (weekends, typically).
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://cdn.jsdelivr.net/gh/fawazahmed0/currency-api@1"

type rateResponse struct {
	Date string  `json:"date"`
	DKK  float64 `json:"dkk"`
}

type Client struct {
	// BaseURL is overridable for tests; empty means DefaultBaseURL.
	BaseURL string
}

func New() *Client {
	return &Client{BaseURL: DefaultBaseURL}
}

func (c *Client) EURToDKK(ctx context.Context) (float64, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := fmt.Sprintf("%s/latest/currencies/eur/dkk.json", base)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch EUR/DKK rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rate rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rate); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if rate.DKK <= 0 {
		return 0, fmt.Errorf("implausible EUR/DKK rate: %v", rate.DKK)
	}

	return rate.DKK, nil
}
