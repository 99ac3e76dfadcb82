package periods

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildBuckets_MonthClipsFirstAndLast(t *testing.T) {
	buckets, err := BuildBuckets(day("2024-01-15"), day("2024-03-10"), Month)
	if err != nil {
		t.Fatalf("BuildBuckets error: %v", err)
	}
	expected := []Bucket{
		{Start: day("2024-01-15"), End: day("2024-01-31")},
		{Start: day("2024-02-01"), End: day("2024-02-29")},
		{Start: day("2024-03-01"), End: day("2024-03-10")},
	}
	if len(buckets) != len(expected) {
		t.Fatalf("expected %d buckets, got %d", len(expected), len(buckets))
	}
	for i := range expected {
		if !buckets[i].Start.Equal(expected[i].Start) || !buckets[i].End.Equal(expected[i].End) {
			t.Fatalf("bucket %d expected %v, got %v", i, expected[i], buckets[i])
		}
	}
}

func TestBuildBuckets_Granularities(t *testing.T) {
	cases := []struct {
		start, end string
		g          Granularity
		count      int
		firstLabel string
		lastLabel  string
	}{
		{"2024-01-01", "2024-01-07", Day, 7, "2024-01-01", "2024-01-07"},
		{"2023-12-31", "2024-01-01", Day, 2, "2023-12-31", "2024-01-01"},
		{"2024-01-01", "2024-12-31", Month, 12, "2024-01", "2024-12"},
		{"2023-11-20", "2024-02-01", Month, 4, "2023-11", "2024-02"},
		{"2022-06-01", "2024-01-01", Year, 3, "2022", "2024"},
		{"2024-02-29", "2024-02-29", Year, 1, "2024", "2024"},
	}
	for _, tc := range cases {
		buckets, err := BuildBuckets(day(tc.start), day(tc.end), tc.g)
		if err != nil {
			t.Fatalf("BuildBuckets(%s, %s, %s) error: %v", tc.start, tc.end, tc.g, err)
		}
		if len(buckets) != tc.count {
			t.Fatalf("BuildBuckets(%s, %s, %s) expected %d buckets, got %d", tc.start, tc.end, tc.g, tc.count, len(buckets))
		}
		if got := Label(buckets[0].Start, tc.g); got != tc.firstLabel {
			t.Fatalf("first label expected %s, got %s", tc.firstLabel, got)
		}
		if got := Label(buckets[len(buckets)-1].Start, tc.g); got != tc.lastLabel {
			t.Fatalf("last label expected %s, got %s", tc.lastLabel, got)
		}
	}
}

func TestBuildBuckets_ContiguousAndOrdered(t *testing.T) {
	for _, g := range []Granularity{Day, Month, Year} {
		buckets, err := BuildBuckets(day("2023-03-17"), day("2025-08-02"), g)
		if err != nil {
			t.Fatalf("BuildBuckets error: %v", err)
		}
		if !buckets[0].Start.Equal(day("2023-03-17")) || !buckets[len(buckets)-1].End.Equal(day("2025-08-02")) {
			t.Fatalf("%s buckets do not span the range: %v .. %v", g, buckets[0], buckets[len(buckets)-1])
		}
		for i := 1; i < len(buckets); i++ {
			if !buckets[i].Start.Equal(buckets[i-1].Before()) {
				t.Fatalf("%s bucket %d starts %s, previous ends %s", g, i, buckets[i].Start, buckets[i-1].End)
			}
		}
	}
}

func TestBuildBuckets_SingleInstant(t *testing.T) {
	buckets, err := BuildBuckets(day("2024-05-05"), day("2024-05-05"), Month)
	if err != nil {
		t.Fatalf("BuildBuckets error: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if !buckets[0].Start.Equal(buckets[0].End) {
		t.Fatalf("expected zero-width bucket, got %v", buckets[0])
	}
	if !buckets[0].Contains(day("2024-05-05").Add(13 * time.Hour)) {
		t.Fatalf("expected bucket to contain its own day")
	}
}

func TestBuildBuckets_InvalidRange(t *testing.T) {
	_, err := BuildBuckets(day("2024-02-01"), day("2024-01-31"), Day)
	var rangeErr *models.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
	if !rangeErr.Start.Equal(day("2024-02-01")) {
		t.Fatalf("range must not be swapped, got start %s", rangeErr.Start)
	}
}

func TestBuildBuckets_UnknownGranularity(t *testing.T) {
	_, err := BuildBuckets(day("2024-01-01"), day("2024-01-31"), Granularity("fortnight"))
	if !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
	if _, err := ParseGranularity("Monthly"); err != nil {
		t.Fatalf("ParseGranularity(Monthly) error: %v", err)
	}
}

func TestAddPeriods_ClampsMonthEnd(t *testing.T) {
	cases := []struct {
		anchor   string
		freq     models.RepeatFreq
		n        int
		expected string
	}{
		{"2024-01-31", models.RepeatFreqMonth, 1, "2024-02-29"},
		{"2024-01-31", models.RepeatFreqMonth, 2, "2024-03-31"},
		{"2023-01-31", models.RepeatFreqMonth, 1, "2023-02-28"},
		{"2024-11-30", models.RepeatFreqQuarter, 1, "2025-02-28"},
		{"2024-02-29", models.RepeatFreqYear, 1, "2025-02-28"},
		{"2024-02-29", models.RepeatFreqYear, 4, "2028-02-29"},
		{"2024-01-01", models.RepeatFreqWeek, 3, "2024-01-22"},
	}
	for _, tc := range cases {
		got := AddPeriods(day(tc.anchor), tc.freq, tc.n)
		if !got.Equal(day(tc.expected)) {
			t.Fatalf("AddPeriods(%s, %s, %d) expected %s, got %s", tc.anchor, tc.freq, tc.n, tc.expected, got.Format(time.DateOnly))
		}
	}
}

func TestCyclesBefore(t *testing.T) {
	cases := []struct {
		anchor   string
		freq     models.RepeatFreq
		at       string
		expected int
	}{
		{"2024-01-31", models.RepeatFreqMonth, "2024-02-28", 0},
		{"2024-01-31", models.RepeatFreqMonth, "2024-02-29", 1},
		{"2024-01-31", models.RepeatFreqMonth, "2024-03-31", 2},
		{"2024-01-01", models.RepeatFreqWeek, "2024-01-14", 1},
		{"2024-01-01", models.RepeatFreqQuarter, "2024-12-31", 3},
		{"2024-01-01", models.RepeatFreqYear, "2023-12-31", -1},
	}
	for _, tc := range cases {
		got := CyclesBefore(day(tc.anchor), tc.freq, day(tc.at))
		if got != tc.expected {
			t.Fatalf("CyclesBefore(%s, %s, %s) expected %d, got %d", tc.anchor, tc.freq, tc.at, tc.expected, got)
		}
	}
}

func TestDate_UsesUTCDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, 1, 31, 23, 30, 0, 0, est)
	if got := Date(late); !got.Equal(day("2024-02-01")) {
		t.Fatalf("expected 2024-02-01, got %s", got)
	}
	if got := Label(StartOf(late, Month), Month); got != "2024-02" {
		t.Fatalf("expected month 2024-02, got %s", got)
	}
	buckets, err := BuildBuckets(day("2024-02-01"), day("2024-02-29"), Month)
	if err != nil {
		t.Fatalf("BuildBuckets error: %v", err)
	}
	if !buckets[0].Contains(late) {
		t.Fatalf("expected the February bucket to contain %s", late)
	}
}

func TestDaysBetween_LongRanges(t *testing.T) {
	cases := []struct {
		a, b     string
		expected int
	}{
		{"2024-01-01", "2024-01-01", 0},
		{"2024-02-28", "2024-03-01", 2},
		{"2024-03-01", "2024-02-28", -2},
		{"1500-01-01", "2000-01-01", 182621},
		{"0001-01-01", "9999-12-31", 3652058},
	}
	for _, c := range cases {
		if got := DaysBetween(day(c.a), day(c.b)); got != c.expected {
			t.Fatalf("DaysBetween(%s, %s): expected %d, got %d", c.a, c.b, c.expected, got)
		}
	}
	if got := CyclesBefore(day("1500-01-01"), models.RepeatFreqWeek, day("2000-01-01")); got != 182621/7 {
		t.Fatalf("expected %d weekly cycles, got %d", 182621/7, got)
	}
}
