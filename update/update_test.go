package update

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fuglede/slack-electricity-prices/hours"
	"github.com/fuglede/slack-electricity-prices/notify"
	"github.com/fuglede/slack-electricity-prices/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	last     time.Time
	hasLast  bool
	getErr   error
	setErr   error
	setCalls []time.Time
}

func (s *fakeStore) LastUpdate(context.Context) (time.Time, bool, error) {
	return s.last, s.hasLast, s.getErr
}

func (s *fakeStore) SetLastUpdate(_ context.Context, t time.Time) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCalls = append(s.setCalls, t)
	s.last, s.hasLast = t, true
	return nil
}

type fakeSource struct {
	latest      time.Time
	latestErr   error
	latestCalls int
	prices      map[string][]types.PricePoint
	pricesErr   error
}

func (s *fakeSource) LatestAvailableDate(context.Context, string) (time.Time, error) {
	s.latestCalls++
	return s.latest, s.latestErr
}

func (s *fakeSource) Prices(_ context.Context, zone string) ([]types.PricePoint, error) {
	if s.pricesErr != nil {
		return nil, s.pricesErr
	}
	return s.prices[zone], nil
}

func TestAvailable(t *testing.T) {
	loc := hours.Copenhagen()
	day := func(d, hh, mm int) time.Time {
		return time.Date(2025, time.January, d, hh, mm, 0, 0, loc)
	}

	tests := []struct {
		name    string
		hasLast bool
		last    time.Time
		now     time.Time
		latest  time.Time
		want    bool
	}{
		{"never ran posts even at night", false, time.Time{}, day(10, 3, 0), time.Time{}, true},
		{"already ran today", true, day(10, 13, 5), day(10, 18, 0), day(11, 0, 0), false},
		{"already ran today, stored in utc", true, day(10, 13, 5).UTC(), day(10, 18, 0), day(11, 0, 0), false},
		{"before publication window", true, day(9, 13, 0), day(10, 12, 29), day(11, 0, 0), false},
		{"at the publication minute with new data", true, day(9, 13, 0), day(10, 12, 30), day(11, 0, 0), true},
		{"upstream still on today", true, day(9, 13, 0), day(10, 13, 0), day(10, 0, 0), false},
		{"tomorrow published", true, day(9, 13, 0), day(10, 13, 0), day(11, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{last: tt.last, hasLast: tt.hasLast}
			src := &fakeSource{latest: tt.latest}
			got, err := Available(context.Background(), store, src, types.ZoneDK2, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestAvailableSkipsProbeWhenDecidedLocally(t *testing.T) {
	loc := hours.Copenhagen()
	src := &fakeSource{latest: time.Date(2025, time.January, 11, 0, 0, 0, 0, loc)}

	// First run ever: no probe needed.
	store := &fakeStore{}
	if _, err := Available(context.Background(), store, src, types.ZoneDK2, time.Date(2025, time.January, 10, 3, 0, 0, 0, loc)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Before the publication window: no probe either.
	store = &fakeStore{hasLast: true, last: time.Date(2025, time.January, 9, 13, 0, 0, 0, loc)}
	if _, err := Available(context.Background(), store, src, types.ZoneDK2, time.Date(2025, time.January, 10, 9, 0, 0, 0, loc)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.latestCalls != 0 {
		t.Errorf("got %d upstream probes, wanted 0", src.latestCalls)
	}
}

func TestAvailableStoreError(t *testing.T) {
	store := &fakeStore{getErr: errors.New("disk on fire")}
	_, err := Available(context.Background(), store, &fakeSource{}, types.ZoneDK2, time.Now())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAvailableSourceError(t *testing.T) {
	loc := hours.Copenhagen()
	store := &fakeStore{hasLast: true, last: time.Date(2025, time.January, 9, 13, 0, 0, 0, loc)}
	src := &fakeSource{latestErr: errors.New("upstream down")}
	_, err := Available(context.Background(), store, src, types.ZoneDK2, time.Date(2025, time.January, 10, 13, 0, 0, 0, loc))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRunPostsAndRecords(t *testing.T) {
	var got struct {
		Text string `json:"text"`
	}
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding webhook payload: %v", err)
		}
	}))
	defer ts.Close()

	loc := hours.Copenhagen()
	now := time.Date(2025, time.January, 10, 12, 35, 0, 0, loc)
	store := &fakeStore{hasLast: true, last: time.Date(2025, time.January, 9, 13, 0, 0, 0, loc)}
	src := &fakeSource{prices: map[string][]types.PricePoint{
		types.ZoneDK1: {
			{Hour: "2025-01-11T00:00:00", Price: 100_000},
			{Hour: "2025-01-11T01:00:00", Price: 500_000},
		},
		types.ZoneDK2: {
			{Hour: "2025-01-11T00:00:00", Price: 200_000},
			{Hour: "2025-01-11T01:00:00", Price: 400_000},
		},
	}}

	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1, types.ZoneDK2},
		Logger: discardLogger(),
		Now:    func() time.Time { return now },
	}
	dests := []notify.Destination{{Kind: notify.KindSlackWebhook, URL: ts.URL}}

	report, err := Run(context.Background(), p, dests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requests != 1 {
		t.Errorf("got %d webhook requests, wanted 1", requests)
	}
	if got.Text != report.Message {
		t.Errorf("webhook got %q, wanted %q", got.Text, report.Message)
	}
	if !strings.Contains(report.Message, "Tomorrow's electricity prices for DK1:") ||
		!strings.Contains(report.Message, "Tomorrow's electricity prices for DK2:") {
		t.Errorf("message is missing a zone header: %q", report.Message)
	}
	if n := strings.Count(report.Message, "\n\n"); n != 1 {
		t.Errorf("got %d blank-line separators, wanted 1: %q", n, report.Message)
	}

	if len(store.setCalls) != 1 {
		t.Fatalf("got %d state updates, wanted 1", len(store.setCalls))
	}
	if !store.setCalls[0].Equal(now) {
		t.Errorf("recorded %v, wanted %v", store.setCalls[0], now)
	}

	if len(report.Deliveries) != 1 || report.Deliveries[0].Err != nil {
		t.Errorf("unexpected deliveries: %+v", report.Deliveries)
	}
	if report.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run id was not assigned")
	}
	if len(report.Zones[types.ZoneDK1]) != 2 {
		t.Errorf("got %d DK1 points in report, wanted 2", len(report.Zones[types.ZoneDK1]))
	}
}

func TestRunAdvancesStateWhenDeliveryFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such channel", http.StatusNotFound)
	}))
	defer ts.Close()

	store := &fakeStore{}
	src := &fakeSource{prices: map[string][]types.PricePoint{
		types.ZoneDK1: {{Hour: "2025-01-11T00:00:00", Price: 100_000}},
	}}
	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1},
		Logger: discardLogger(),
	}
	dests := []notify.Destination{{Kind: notify.KindSlackWebhook, URL: ts.URL}}

	report, err := Run(context.Background(), p, dests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Deliveries) != 1 || report.Deliveries[0].Err == nil {
		t.Fatalf("expected a failed delivery, got %+v", report.Deliveries)
	}
	if len(store.setCalls) != 1 {
		t.Errorf("got %d state updates, wanted 1", len(store.setCalls))
	}
}

func TestRunAdvancesStateWithoutDestinations(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{prices: map[string][]types.PricePoint{
		types.ZoneDK1: {{Hour: "2025-01-11T00:00:00", Price: 100_000}},
	}}
	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1},
		Logger: discardLogger(),
	}

	if _, err := Run(context.Background(), p, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.setCalls) != 1 {
		t.Errorf("got %d state updates, wanted 1", len(store.setCalls))
	}
}

func TestRunStateWriteFailureSurfaces(t *testing.T) {
	store := &fakeStore{setErr: errors.New("disk full")}
	src := &fakeSource{prices: map[string][]types.PricePoint{
		types.ZoneDK1: {{Hour: "2025-01-11T00:00:00", Price: 100_000}},
	}}
	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1},
		Logger: discardLogger(),
	}

	report, err := Run(context.Background(), p, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// The message was composed before the write failed; the caller still
	// gets the report for journaling.
	if report.Message == "" {
		t.Error("report should carry the composed message")
	}
}

func TestRunFetchFailureLeavesStateAlone(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{pricesErr: errors.New("upstream down")}
	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1},
		Logger: discardLogger(),
	}

	if _, err := Run(context.Background(), p, nil); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(store.setCalls) != 0 {
		t.Errorf("got %d state updates, wanted 0", len(store.setCalls))
	}
}

func TestRunEmptyPricesLeavesStateAlone(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{prices: map[string][]types.PricePoint{}}
	p := Params{
		Store:  store,
		Source: src,
		Sender: notify.NewSender(discardLogger()),
		Zones:  []string{types.ZoneDK1},
		Logger: discardLogger(),
	}

	if _, err := Run(context.Background(), p, nil); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(store.setCalls) != 0 {
		t.Errorf("got %d state updates, wanted 0", len(store.setCalls))
	}
}
