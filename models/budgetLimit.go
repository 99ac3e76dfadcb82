package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BudgetLimit struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BudgetId   int             `gorm:"index;not null" json:"budget_id"`
	StartDate  time.Time       `gorm:"index;not null" json:"start_date"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	RepeatFreq RepeatFreq      `gorm:"size:10;not null;default:'month'" json:"repeat_freq"`
	Repeats    bool            `gorm:"not null;default:false" json:"repeats"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBudgetLimit struct {
	StartDate  time.Time       `json:"start_date" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	RepeatFreq RepeatFreq      `json:"repeat_freq" validate:"required,oneof=week month quarter year"`
	Repeats    bool            `json:"repeats"`
}

func (l BudgetLimit) GetId() int {
	return l.ID
}

// LimitRepetition is one concrete window [StartDate, EndDate) of a BudgetLimit.
// Cycle counts windows from the limit's start date, starting at zero.
type LimitRepetition struct {
	LimitId   int             `json:"limit_id"`
	BudgetId  int             `json:"budget_id"`
	Cycle     int             `json:"cycle"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Amount    decimal.Decimal `json:"amount"`
}

// Id is stable for a given limit and cycle: "<limitId>:<cycle>".
func (r LimitRepetition) Id() string {
	return fmt.Sprintf("%d:%d", r.LimitId, r.Cycle)
}

func (r LimitRepetition) Contains(t time.Time) bool {
	return !t.Before(r.StartDate) && t.Before(r.EndDate)
}

// Overlaps reports whether the window shares any instant with [from, before).
func (r LimitRepetition) Overlaps(from, before time.Time) bool {
	return r.StartDate.Before(before) && r.EndDate.After(from)
}

func (r LimitRepetition) Duration() time.Duration {
	return r.EndDate.Sub(r.StartDate)
}

func ParseRepetitionId(id string) (limitId int, cycle int, err error) {
	parts := strings.Split(strings.TrimSpace(id), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed repetition id %q", id)
	}
	limitId, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed repetition id %q: %w", id, err)
	}
	cycle, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed repetition id %q: %w", id, err)
	}
	if limitId <= 0 || cycle < 0 {
		return 0, 0, fmt.Errorf("malformed repetition id %q", id)
	}
	return limitId, cycle, nil
}
