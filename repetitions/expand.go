// Package repetitions turns budget limits into the concrete windows they
// recur over and decides which window a given day belongs to.
package repetitions

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
)

// Expand yields the repetitions of limit that intersect the inclusive day
// range [from, to], in order. The sequence is lazy and can be ranged over
// more than once. A limit that does not repeat has exactly one window.
func Expand(limit models.BudgetLimit, from, to time.Time) iter.Seq[models.LimitRepetition] {
	from, to = periods.Date(from), periods.Date(to)
	return func(yield func(models.LimitRepetition) bool) {
		if to.Before(from) {
			return
		}
		n := 0
		if limit.Repeats {
			n = max(periods.CyclesBefore(limit.StartDate, limit.RepeatFreq, from), 0)
		}
		for {
			rep := build(limit, n)
			if rep.StartDate.After(to) {
				return
			}
			if rep.EndDate.After(from) {
				if !yield(rep) {
					return
				}
			}
			if !limit.Repeats {
				return
			}
			n++
		}
	}
}

func build(limit models.BudgetLimit, cycle int) models.LimitRepetition {
	return models.LimitRepetition{
		LimitId:   limit.ID,
		BudgetId:  limit.BudgetId,
		Cycle:     cycle,
		StartDate: periods.AddPeriods(limit.StartDate, limit.RepeatFreq, cycle),
		EndDate:   periods.AddPeriods(limit.StartDate, limit.RepeatFreq, cycle+1),
		Amount:    limit.Amount,
	}
}

// Attribute picks the repetition a transaction dated t belongs to when
// several windows contain it: the closest start on or before t, then the
// shortest window, then the lowest limit id.
func Attribute(reps []models.LimitRepetition, t time.Time) (models.LimitRepetition, bool) {
	t = periods.Date(t)
	var best models.LimitRepetition
	found := false
	for _, rep := range reps {
		if !rep.Contains(t) {
			continue
		}
		if !found || better(rep, best) {
			best = rep
			found = true
		}
	}
	return best, found
}

func better(a, b models.LimitRepetition) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	if a.Duration() != b.Duration() {
		return a.Duration() < b.Duration()
	}
	return a.LimitId < b.LimitId
}

func sortRepetitions(reps []models.LimitRepetition) {
	slices.SortStableFunc(reps, func(a, b models.LimitRepetition) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Duration(), b.Duration()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.LimitId, b.LimitId); c != 0 {
			return c
		}
		return cmp.Compare(a.Cycle, b.Cycle)
	})
}
