package periods

import (
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
)

// AddPeriods moves anchor forward by n periods of freq. Month based steps
// keep the anchor's day of month, clamped to the last day of short months,
// so 2024-01-31 + 1 month is 2024-02-29 and + 2 months is 2024-03-31.
func AddPeriods(anchor time.Time, freq models.RepeatFreq, n int) time.Time {
	anchor = Date(anchor)
	switch freq {
	case models.RepeatFreqWeek:
		return anchor.AddDate(0, 0, 7*n)
	case models.RepeatFreqQuarter:
		return addMonthsClamped(anchor, 3*n)
	case models.RepeatFreqYear:
		return addMonthsClamped(anchor, 12*n)
	default:
		return addMonthsClamped(anchor, n)
	}
}

// CyclesBefore returns how many whole periods of freq fit between anchor and t,
// the index of the cycle containing t. Negative when t is before anchor.
func CyclesBefore(anchor time.Time, freq models.RepeatFreq, t time.Time) int {
	anchor, t = Date(anchor), Date(t)
	if t.Before(anchor) {
		return -1
	}
	var n int
	switch freq {
	case models.RepeatFreqWeek:
		return DaysBetween(anchor, t) / 7
	case models.RepeatFreqQuarter:
		n = monthsBetween(anchor, t) / 3
	case models.RepeatFreqYear:
		n = monthsBetween(anchor, t) / 12
	default:
		n = monthsBetween(anchor, t)
	}
	// month arithmetic can overshoot by one when the anchor day is clamped
	for n > 0 && AddPeriods(anchor, freq, n).After(t) {
		n--
	}
	for !AddPeriods(anchor, freq, n+1).After(t) {
		n++
	}
	return n
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	target := time.Date(ty, time.Month(tm+1), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(target); d > last {
		d = last
	}
	return time.Date(ty, time.Month(tm+1), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
