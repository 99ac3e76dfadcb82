package repetitions

import (
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"github.com/shopspring/decimal"
)

// Resolver answers repetition questions over the limits loaded on a budget.
// It holds no state besides the clock.
type Resolver struct {
	Now models.Clock
}

func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

func (r *Resolver) today() time.Time {
	if r == nil || r.Now == nil {
		return periods.Date(time.Now())
	}
	return periods.Date(r.Now())
}

// InRange returns every repetition of every limit of budget intersecting
// [start, end], sorted by start date. Overlapping limits are all returned.
func (r *Resolver) InRange(budget *models.Budget, start, end time.Time) ([]models.LimitRepetition, error) {
	start, end = periods.Date(start), periods.Date(end)
	if err := models.CheckRange(start, end); err != nil {
		return nil, err
	}
	reps := make([]models.LimitRepetition, 0)
	for _, limit := range budget.Limits {
		for rep := range Expand(limit, start, end) {
			reps = append(reps, rep)
		}
	}
	sortRepetitions(reps)
	return reps, nil
}

// Current returns the repetition containing the later of today and the
// midpoint of [start, end], clipped to the range. Nil when no limit covers it.
func (r *Resolver) Current(budget *models.Budget, start, end time.Time) (*models.LimitRepetition, error) {
	start, end = periods.Date(start), periods.Date(end)
	if err := models.CheckRange(start, end); err != nil {
		return nil, err
	}
	at := ReferenceDay(start, end, r.today())
	reps, err := r.InRange(budget, at, at)
	if err != nil {
		return nil, err
	}
	rep, ok := Attribute(reps, at)
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

// ReferenceDay is the day Current resolves against.
func ReferenceDay(start, end, today time.Time) time.Time {
	mid := start.AddDate(0, 0, periods.DaysBetween(start, end)/2)
	at := mid
	if today.After(at) {
		at = today
	}
	if at.After(end) {
		at = end
	}
	if at.Before(start) {
		at = start
	}
	return at
}

func (r *Resolver) FirstLimitDate(budget *models.Budget) (time.Time, bool) {
	var first time.Time
	found := false
	for _, limit := range budget.Limits {
		d := periods.Date(limit.StartDate)
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	return first, found
}

// All returns the repetitions from the first limit up to the later of today
// and the latest limit start.
func (r *Resolver) All(budget *models.Budget) ([]models.LimitRepetition, error) {
	first, ok := r.FirstLimitDate(budget)
	if !ok {
		return []models.LimitRepetition{}, nil
	}
	horizon := r.today()
	for _, limit := range budget.Limits {
		if d := periods.Date(limit.StartDate); d.After(horizon) {
			horizon = d
		}
	}
	return r.InRange(budget, first, horizon)
}

// LastLimitDate returns the latest end among the repetitions returned by All.
//
// Deprecated: use InRange and read the last window instead.
func (r *Resolver) LastLimitDate(budget *models.Budget) (time.Time, bool) {
	reps, err := r.All(budget)
	if err != nil || len(reps) == 0 {
		return time.Time{}, false
	}
	last := reps[0].EndDate
	for _, rep := range reps[1:] {
		if rep.EndDate.After(last) {
			last = rep.EndDate
		}
	}
	return last, true
}

// LimitAmountOnDate returns the amount of the repetition current on date.
//
// Deprecated: use Current.
func (r *Resolver) LimitAmountOnDate(budget *models.Budget, date time.Time) (decimal.Decimal, bool) {
	rep, err := r.Current(budget, date, date)
	if err != nil || rep == nil {
		return decimal.Zero, false
	}
	return rep.Amount, true
}

// ByID rebuilds a repetition from its "<limitId>:<cycle>" identity.
func (r *Resolver) ByID(budget *models.Budget, id string) (models.LimitRepetition, error) {
	limitId, cycle, err := models.ParseRepetitionId(id)
	if err != nil {
		return models.LimitRepetition{}, &models.NotFoundError{Resource: "LimitRepetition", Id: id}
	}
	for _, limit := range budget.Limits {
		if limit.ID != limitId {
			continue
		}
		if !limit.Repeats && cycle > 0 {
			break
		}
		return build(limit, cycle), nil
	}
	return models.LimitRepetition{}, &models.NotFoundError{Resource: "LimitRepetition", Id: id}
}
