// Package periods splits date ranges into calendar-aligned buckets.
//
// All dates are calendar days at UTC midnight. A Bucket covers the inclusive
// days Start..End, so a month bucket of January 2024 is 2024-01-01..2024-01-31.
package periods

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
)

type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily", "1d":
		return Day, nil
	case "month", "monthly", "1m":
		return Month, nil
	case "year", "yearly", "1y":
		return Year, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

func (g Granularity) IsValid() bool {
	return g == Day || g == Month || g == Year
}

type Bucket struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar day of t falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(b.Start) && !d.After(b.End)
}

// Before is the exclusive upper bound of the bucket, the day after End.
func (b Bucket) Before() time.Time {
	return b.End.AddDate(0, 0, 1)
}

// BuildBuckets returns the calendar-aligned buckets covering [start, end],
// with the first and last bucket clipped to the range.
func BuildBuckets(start, end time.Time, g Granularity) ([]Bucket, error) {
	start, end = Date(start), Date(end)
	if err := models.CheckRange(start, end); err != nil {
		return nil, err
	}
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}

	buckets := make([]Bucket, 0, estimate(start, end, g))
	for cur := start; !cur.After(end); {
		next := StartOf(cur, g)
		next = step(next, g)
		last := next.AddDate(0, 0, -1)
		if last.After(end) {
			last = end
		}
		buckets = append(buckets, Bucket{Start: cur, End: last})
		cur = next
	}
	return buckets, nil
}

// Label formats t in the canonical form of g: 2006-01-02, 2006-01 or 2006.
func Label(t time.Time, g Granularity) string {
	switch g {
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return t.Format(time.DateOnly)
	}
}

// StartOf returns the first day of the bucket of granularity g containing t.
func StartOf(t time.Time, g Granularity) time.Time {
	d := Date(t)
	switch g {
	case Month:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// Date drops the clock part of t, keeping its calendar day in UTC. Journal
// filters compare instants against UTC midnights, so the day is taken in UTC too.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b, negative when b is earlier.
// Counted on Unix seconds; a time.Duration saturates past about 292 years.
func DaysBetween(a, b time.Time) int {
	return int((Date(b).Unix() - Date(a).Unix()) / 86400)
}

func step(t time.Time, g Granularity) time.Time {
	switch g {
	case Month:
		return t.AddDate(0, 1, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func estimate(start, end time.Time, g Granularity) int {
	switch g {
	case Month:
		return (end.Year()-start.Year())*12 + int(end.Month()-start.Month()) + 1
	case Year:
		return end.Year() - start.Year() + 1
	default:
		return DaysBetween(start, end) + 1
	}
}
