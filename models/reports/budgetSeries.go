package reports

import (
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"github.com/shopspring/decimal"
)

// BudgetSeries is one budget's amounts per period bucket.
type BudgetSeries struct {
	Budget  *models.Budget        `json:"budget"`
	Amounts []models.PeriodAmount `json:"amounts"`
}

func (s BudgetSeries) Total() decimal.Decimal {
	return models.SumPeriodAmounts(s.Amounts)
}

// AmountFor returns the amount of the bucket labelled label, zero when absent.
func (s BudgetSeries) AmountFor(label string) decimal.Decimal {
	for _, a := range s.Amounts {
		if a.Label == label {
			return a.Amount
		}
	}
	return decimal.Zero
}

func SeriesByBudget(series []BudgetSeries) map[int]BudgetSeries {
	m := make(map[int]BudgetSeries, len(series))
	for _, s := range series {
		m[s.Budget.ID] = s
	}
	return m
}

// SeriesTotal sums every amount of every series.
func SeriesTotal(series []BudgetSeries) decimal.Decimal {
	total := decimal.Zero
	for _, s := range series {
		total = total.Add(s.Total())
	}
	return total
}

type BudgetRepetitions struct {
	Budget      *models.Budget           `json:"budget"`
	Repetitions []models.LimitRepetition `json:"repetitions"`
}
