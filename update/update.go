// Package update decides when a new day of prices should be posted and runs
// the posting itself: fetch, summarize, fan out, record.
package update

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fuglede/slack-electricity-prices/hours"
	"github.com/fuglede/slack-electricity-prices/notify"
	"github.com/fuglede/slack-electricity-prices/slice"
	"github.com/fuglede/slack-electricity-prices/summary"
	"github.com/fuglede/slack-electricity-prices/types"
	"github.com/google/uuid"
)

// Day-ahead prices are normally published around 12:30 Danish time, so
// probing the API before that is pointless.
const (
	publishHour   = 12
	publishMinute = 30
)

// Store persists the timestamp of the last completed run. Absence of a
// stored value is not an error, it just means the run never happened.
type Store interface {
	LastUpdate(ctx context.Context) (time.Time, bool, error)
	SetLastUpdate(ctx context.Context, t time.Time) error
}

// Available reports whether a new update should be posted at the given time.
// The later checks are only evaluated when the earlier ones pass, so on most
// invocations no network request is made at all:
//
//  1. never ran before: post;
//  2. already ran on today's Danish calendar date: don't;
//  3. before the publication window: don't;
//  4. otherwise post exactly when the upstream has published a delivery
//     date beyond today, meaning tomorrow's prices are in.
func Available(ctx context.Context, store Store, src types.PriceSource, referenceZone string, now time.Time) (bool, error) {
	last, ok, err := store.LastUpdate(ctx)
	if err != nil {
		return false, fmt.Errorf("reading last update: %w", err)
	}
	if !ok {
		return true, nil
	}

	now = hours.InCopenhagen(now)
	if hours.SameDate(last, now) {
		return false, nil
	}

	if now.Hour() < publishHour || (now.Hour() == publishHour && now.Minute() < publishMinute) {
		return false, nil
	}

	latest, err := src.LatestAvailableDate(ctx, referenceZone)
	if err != nil {
		return false, fmt.Errorf("checking latest available date: %w", err)
	}
	return latest.After(now), nil
}

// Report is what one completed run produced, for journaling and archiving.
type Report struct {
	RunID      uuid.UUID
	At         time.Time
	Message    string
	Zones      map[string][]types.PricePoint
	Deliveries []notify.Result
}

type Params struct {
	Store  Store
	Source types.PriceSource
	Sender *notify.Sender
	Zones  []string
	Logger *slog.Logger
	// Now is overridable for tests; nil means the Copenhagen wall clock.
	Now func() time.Time
}

// Compose fetches every zone and joins the per-zone summaries into the
// message to be posted. Any fetch or summarize failure aborts the whole
// message; a partial post would be misleading.
func Compose(ctx context.Context, src types.PriceSource, zones []string) (string, map[string][]types.PricePoint, error) {
	segments := make([]string, 0, len(zones))
	byZone := make(map[string][]types.PricePoint, len(zones))
	for _, zone := range zones {
		points, err := src.Prices(ctx, zone)
		if err != nil {
			return "", nil, fmt.Errorf("fetching prices for %s: %w", zone, err)
		}
		segment, err := summary.ForZone(zone, points)
		if err != nil {
			return "", nil, err
		}
		segments = append(segments, segment)
		byZone[zone] = points
	}
	return strings.Join(segments, "\n\n"), byZone, nil
}

// Run performs one update: compose the message, attempt every destination,
// then mark the run as done. The last-update timestamp is advanced after the
// fan-out no matter how many destinations failed; retrying later would
// double-post to the destinations that did work.
func Run(ctx context.Context, p Params, dests []notify.Destination) (Report, error) {
	now := hours.Now()
	if p.Now != nil {
		now = hours.InCopenhagen(p.Now())
	}

	message, byZone, err := Compose(ctx, p.Source, p.Zones)
	if err != nil {
		return Report{}, err
	}

	report := Report{RunID: uuid.New(), At: now, Message: message, Zones: byZone}
	p.Logger.Info("posting update",
		slog.String("runId", report.RunID.String()),
		slog.Int("noOfDestinations", len(dests)))
	p.Logger.Debug("update message", slog.String("message", message))

	report.Deliveries = p.Sender.Fanout(ctx, dests, message)
	if len(dests) > 0 && slice.All(report.Deliveries, func(r notify.Result) bool { return r.Err != nil }) {
		p.Logger.Warn("no destination accepted the update", slog.String("runId", report.RunID.String()))
	}

	if err := p.Store.SetLastUpdate(ctx, now); err != nil {
		return report, fmt.Errorf("recording last update: %w", err)
	}

	return report, nil
}
