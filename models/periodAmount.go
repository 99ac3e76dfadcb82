package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodAmount is one bucket of an aggregation. Start and End are the
// inclusive days the bucket covers.
type PeriodAmount struct {
	Label  string          `json:"label"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Amount decimal.Decimal `json:"amount"`
}

func SumPeriodAmounts(amounts []PeriodAmount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Amount)
	}
	return total
}
