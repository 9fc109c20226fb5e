// Package summary reduces a day of hourly spot prices to the three numbers
// worth posting: the cheapest hour, the most expensive hour and the mean.
package summary

import (
	"errors"
	"fmt"

	"github.com/fuglede/slack-electricity-prices/convert"
	"github.com/fuglede/slack-electricity-prices/types"
)

// ErrNoPrices is returned when there is nothing to summarize; min, max and
// mean are undefined for an empty day.
var ErrNoPrices = errors.New("no prices to summarize")

type Summary struct {
	Lowest  types.PricePoint
	Highest types.PricePoint
	Mean    float64
}

// Compute picks the lowest and highest priced hours (first occurrence wins on
// ties) and the arithmetic mean over all hours.
func Compute(points []types.PricePoint) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrNoPrices
	}

	s := Summary{Lowest: points[0], Highest: points[0]}
	sum := 0.0
	for _, p := range points {
		if p.Price < s.Lowest.Price {
			s.Lowest = p
		}
		if p.Price > s.Highest.Price {
			s.Highest = p
		}
		sum += p.Price
	}
	s.Mean = sum / float64(len(points))

	return s, nil
}

// Format renders the summary as three lines, prices rescaled from the
// upstream DKK/MWh to the DKK/kWh people see on their bill.
func (s Summary) Format() string {
	return fmt.Sprintf(
		"Lowest price: %.2f DKK/kWh (%s)\nHighest price: %.2f DKK/kWh (%s)\nAverage price: %.2f DKK/kWh",
		convert.PerMWhToPerKWh(s.Lowest.Price), s.Lowest.Hour,
		convert.PerMWhToPerKWh(s.Highest.Price), s.Highest.Hour,
		convert.PerMWhToPerKWh(s.Mean))
}

// ForZone builds the message segment for one price zone.
func ForZone(zone string, points []types.PricePoint) (string, error) {
	s, err := Compute(points)
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", zone, err)
	}
	return fmt.Sprintf("Tomorrow's electricity prices for %s:\n%s", zone, s.Format()), nil
}
