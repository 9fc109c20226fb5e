// Package energidataservice queries the Danish Energy Agency's open API for
// day-ahead spot prices (the Elspotprices dataset).
package energidataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fuglede/slack-electricity-prices/hours"
	"github.com/fuglede/slack-electricity-prices/types"
)

const DefaultBaseURL = "https://api.energidataservice.dk"

// hoursPerDay is the fetch window: the most recent day of hourly records.
const hoursPerDay = 24

type Client struct {
	// BaseURL is overridable for tests; empty means DefaultBaseURL.
	BaseURL string
	rates   types.RateSource
}

func New(rates types.RateSource) *Client {
	return &Client{BaseURL: DefaultBaseURL, rates: rates}
}

// LatestAvailableDate returns the Copenhagen midnight of the newest delivery
// hour published for the zone. New data normally shows up shortly after the
// day-ahead auction settles, early afternoon Danish time.
func (c *Client) LatestAvailableDate(ctx context.Context, zone string) (time.Time, error) {
	records, err := c.fetchRecords(ctx, zone, 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(records) == 0 {
		return time.Time{}, fmt.Errorf("no records published for zone %s", zone)
	}

	t, err := hours.ParseHourDK(records[0].HourDK)
	if err != nil {
		return time.Time{}, err
	}
	return hours.MidnightOf(t), nil
}

// Prices returns the zone's most recent day of hourly prices in the order
// delivered by the source (newest first), each resolved to DKK/MWh.
func (c *Client) Prices(ctx context.Context, zone string) ([]types.PricePoint, error) {
	records, err := c.fetchRecords(ctx, zone, hoursPerDay)
	if err != nil {
		return nil, err
	}

	// The upstream stops filling in SpotPriceDKK over weekends; those
	// records are priced from the EUR value and the current exchange rate.
	var rate float64
	haveRate := false

	points := make([]types.PricePoint, 0, len(records))
	for _, r := range records {
		var price float64
		switch {
		case r.SpotPriceDKK != nil:
			price = *r.SpotPriceDKK
		case r.SpotPriceEUR == nil:
			return nil, fmt.Errorf("record %s has neither a DKK nor a EUR price", r.HourDK)
		default:
			if !haveRate {
				rate, err = c.rates.EURToDKK(ctx)
				if err != nil {
					return nil, fmt.Errorf("failed to fetch conversion rate for EUR-only record: %w", err)
				}
				haveRate = true
			}
			price = *r.SpotPriceEUR * rate
		}
		points = append(points, types.PricePoint{Hour: r.HourDK, Price: price})
	}

	return points, nil
}

func (c *Client) fetchRecords(ctx context.Context, zone string, limit int) ([]record, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	params := url.Values{}
	params.Set("limit", fmt.Sprint(limit))
	params.Set("filter", fmt.Sprintf(`{"PriceArea":%q}`, zone))
	endpoint := fmt.Sprintf("%s/dataset/Elspotprices?%s", base, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return data.Records, nil
}
