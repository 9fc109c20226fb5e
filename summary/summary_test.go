package summary

import (
	"errors"
	"strings"
	"testing"

	"github.com/fuglede/slack-electricity-prices/types"
)

func TestComputeEmpty(t *testing.T) {
	if _, err := Compute(nil); !errors.Is(err, ErrNoPrices) {
		t.Errorf("got %v, wanted ErrNoPrices", err)
	}
}

func TestCompute(t *testing.T) {
	points := []types.PricePoint{
		{Hour: "2024-01-01T00:00:00", Price: 100000},
		{Hour: "2024-01-01T01:00:00", Price: 500000},
	}

	s, err := Compute(points)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	if s.Lowest.Hour != "2024-01-01T00:00:00" || s.Lowest.Price != 100000 {
		t.Errorf("got lowest %+v, wanted 100000 at 00:00", s.Lowest)
	}
	if s.Highest.Hour != "2024-01-01T01:00:00" || s.Highest.Price != 500000 {
		t.Errorf("got highest %+v, wanted 500000 at 01:00", s.Highest)
	}
	if s.Mean != 300000 {
		t.Errorf("got mean %v, wanted %v", s.Mean, 300000.0)
	}
}

func TestComputeTiesKeepFirstOccurrence(t *testing.T) {
	points := []types.PricePoint{
		{Hour: "2024-01-01T05:00:00", Price: 200},
		{Hour: "2024-01-01T06:00:00", Price: 200},
		{Hour: "2024-01-01T07:00:00", Price: 200},
	}

	s, err := Compute(points)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	if s.Lowest.Hour != "2024-01-01T05:00:00" {
		t.Errorf("got lowest hour %q, wanted the first occurrence", s.Lowest.Hour)
	}
	if s.Highest.Hour != "2024-01-01T05:00:00" {
		t.Errorf("got highest hour %q, wanted the first occurrence", s.Highest.Hour)
	}
}

func TestComputeMeanWithinBounds(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
	}{
		{name: "single hour", prices: []float64{412.13}},
		{name: "mixed signs", prices: []float64{-12.5, 0, 88.1, 301.7}},
		{name: "all negative", prices: []float64{-300, -120.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := make([]types.PricePoint, len(tt.prices))
			for i, p := range tt.prices {
				points[i] = types.PricePoint{Hour: "2024-01-01T00:00:00", Price: p}
			}

			s, err := Compute(points)
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}
			if s.Mean < s.Lowest.Price || s.Mean > s.Highest.Price {
				t.Errorf("mean %v outside [%v, %v]", s.Mean, s.Lowest.Price, s.Highest.Price)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	s := Summary{
		Lowest:  types.PricePoint{Hour: "2024-01-01T00:00:00", Price: 100000},
		Highest: types.PricePoint{Hour: "2024-01-01T01:00:00", Price: 500000},
		Mean:    300000,
	}

	got := s.Format()
	want := "Lowest price: 100.00 DKK/kWh (2024-01-01T00:00:00)\n" +
		"Highest price: 500.00 DKK/kWh (2024-01-01T01:00:00)\n" +
		"Average price: 300.00 DKK/kWh"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}

	if n := strings.Count(got, "Lowest price:"); n != 1 {
		t.Errorf("got %d lowest-price lines, wanted 1", n)
	}
	if n := strings.Count(got, "Highest price:"); n != 1 {
		t.Errorf("got %d highest-price lines, wanted 1", n)
	}
	if n := strings.Count(got, "Average price:"); n != 1 {
		t.Errorf("got %d average-price lines, wanted 1", n)
	}
}

func TestForZone(t *testing.T) {
	points := []types.PricePoint{{Hour: "2024-01-01T00:00:00", Price: 425.5}}

	got, err := ForZone("DK1", points)
	if err != nil {
		t.Fatalf("ForZone() unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "Tomorrow's electricity prices for DK1:\n") {
		t.Errorf("got %q, wanted the zone header first", got)
	}

	if _, err := ForZone("DK1", nil); !errors.Is(err, ErrNoPrices) {
		t.Errorf("got %v, wanted ErrNoPrices", err)
	}
}
