package types

import (
	"context"
	"time"
)

// The two Danish bidding zones posted by default. The upstream API accepts
// arbitrary zone identifiers, so these are defaults rather than an exhaustive
// enumeration.
const (
	ZoneDK1 = "DK1"
	ZoneDK2 = "DK2"
)

// PricePoint is one hour of day-ahead spot price in DKK/MWh. Hour is the
// upstream HourDK string and is kept verbatim for display.
type PricePoint struct {
	Hour  string
	Price float64
}

type PriceSource interface {
	// LatestAvailableDate returns the Copenhagen midnight of the most
	// recent delivery date the upstream has published for the zone.
	LatestAvailableDate(ctx context.Context, zone string) (time.Time, error)
	// Prices returns the zone's most recent hourly prices in the order
	// delivered by the source, every price resolved to DKK.
	Prices(ctx context.Context, zone string) ([]PricePoint, error)
}

type RateSource interface {
	EURToDKK(ctx context.Context) (float64, error)
}
