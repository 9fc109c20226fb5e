// Package hours holds the time helpers for working with Danish spot market
// data: everything date-related in this application is evaluated on the
// Europe/Copenhagen wall clock, and the upstream API reports hours as naive
// local timestamps ("2022-09-17T23:00:00").
package hours

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// HourDKLayout matches the HourDK field of the Elspotprices dataset,
	// a local Danish timestamp without zone designator.
	HourDKLayout = "2006-01-02T15:04:05"
)

var copenhagenLoc *time.Location

func init() {
	var err error
	copenhagenLoc, err = time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		panic(fmt.Sprintf("failed to load Copenhagen location: %v", err))
	}
}

// Copenhagen returns the location all calendar decisions are made in.
func Copenhagen() *time.Location {
	return copenhagenLoc
}

func InCopenhagen(t time.Time) time.Time {
	return t.In(copenhagenLoc)
}

func Now() time.Time {
	return time.Now().In(copenhagenLoc)
}

// ParseHourDK interprets an HourDK string as Danish wall time.
func ParseHourDK(str string) (time.Time, error) {
	t, err := time.ParseInLocation(HourDKLayout, str, copenhagenLoc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing hour %q: %w", str, err)
	}
	return t, nil
}

// MidnightOf returns the start of t's calendar day in Copenhagen.
func MidnightOf(t time.Time) time.Time {
	t = t.In(copenhagenLoc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, copenhagenLoc)
}

// SameDate reports whether a and b fall on the same Copenhagen calendar day.
func SameDate(a, b time.Time) bool {
	a = a.In(copenhagenLoc)
	b = b.In(copenhagenLoc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DateHour identifies one delivery hour of the spot market, the granularity
// the price archive is keyed on.
type DateHour struct {
	Date string
	Hour uint8
}

func (dh DateHour) String() string {
	return fmt.Sprintf("%s %02d", dh.Date, dh.Hour)
}

func (dh DateHour) IsZero() bool {
	return dh.Date == "" && dh.Hour == 0
}

// HourDK renders the key back in the upstream's timestamp format.
func (dh DateHour) HourDK() string {
	return fmt.Sprintf("%sT%02d:00:00", dh.Date, dh.Hour)
}

func FromTime(t time.Time) DateHour {
	if t.IsZero() {
		return DateHour{}
	}
	t = t.In(copenhagenLoc)
	return DateHour{
		Date: t.Format(dateLayout),
		Hour: uint8(t.Hour()),
	}
}

// FromHourDK converts an upstream HourDK string to its archive key.
func FromHourDK(str string) (DateHour, error) {
	t, err := ParseHourDK(str)
	if err != nil {
		return DateHour{}, err
	}
	return FromTime(t), nil
}
