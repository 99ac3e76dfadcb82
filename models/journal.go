package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Journal is a recorded money movement. A negative Amount is money leaving
// the source account.
type Journal struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	UserId               int             `gorm:"index;not null" json:"user_id"`
	JournalDate          time.Time       `gorm:"index;not null" json:"journal_date"`
	Description          string          `gorm:"size:255" json:"description"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	TransactionType      TransactionType `gorm:"size:20;not null;default:'Withdrawal'" json:"transaction_type"`
	SourceAccountId      int             `gorm:"index;not null" json:"source_account_id"`
	DestinationAccountId int             `gorm:"index" json:"destination_account_id"`
	BudgetId             *int            `gorm:"index" json:"budget_id"`
	Tags                 []Tag           `gorm:"many2many:journal_tags" json:"tags"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (j Journal) GetId() int {
	return j.ID
}

// GetCursor is the timestamp half of the (journal_date, id) keyset. It keeps
// the full instant since journals sort by time of day within a date.
func (j Journal) GetCursor() string {
	return j.JournalDate.UTC().Format(time.RFC3339Nano)
}

// BeforeSave stores journal dates in UTC so keyset comparisons match the
// stored values in every driver.
func (j *Journal) BeforeSave(tx *gorm.DB) error {
	j.JournalDate = j.JournalDate.UTC()
	return nil
}

func (j Journal) IsOutflow() bool {
	return j.Amount.IsNegative()
}

func (j Journal) HasBudget() bool {
	return j.BudgetId != nil && *j.BudgetId > 0
}

func (j Journal) HasAnyTag(tags map[string]struct{}) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range j.Tags {
		if _, ok := tags[NormalizeTag(t.Name)]; ok {
			return true
		}
	}
	return false
}

// JournalFilter narrows a journal query. Zero values mean "no restriction";
// From is inclusive and Before is exclusive.
type JournalFilter struct {
	UserId           int
	BudgetIds        []int
	WithoutBudget    bool
	From             time.Time
	Before           time.Time
	SourceAccountIds []int
	TagNames         []string
	OutflowOnly      bool
}

// Match applies the filter to a single journal. Stores that cannot push the
// filter down to a query use it directly.
func (f JournalFilter) Match(j *Journal) bool {
	if f.UserId > 0 && j.UserId != f.UserId {
		return false
	}
	if f.WithoutBudget && j.HasBudget() {
		return false
	}
	if len(f.BudgetIds) > 0 && (!j.HasBudget() || !containsInt(f.BudgetIds, *j.BudgetId)) {
		return false
	}
	if !f.From.IsZero() && j.JournalDate.Before(f.From) {
		return false
	}
	if !f.Before.IsZero() && !j.JournalDate.Before(f.Before) {
		return false
	}
	if len(f.SourceAccountIds) > 0 && !containsInt(f.SourceAccountIds, j.SourceAccountId) {
		return false
	}
	if len(f.TagNames) > 0 {
		tags := make(map[string]struct{}, len(f.TagNames))
		for _, name := range f.TagNames {
			tags[NormalizeTag(name)] = struct{}{}
		}
		if !j.HasAnyTag(tags) {
			return false
		}
	}
	if f.OutflowOnly && !j.IsOutflow() {
		return false
	}
	return true
}

type JournalPage struct {
	Journals []*Journal `json:"journals"`
	PageInfo PageInfo   `json:"page_info"`
}

// SumAmounts adds the signed amounts of journals.
func SumAmounts(journals []*Journal) decimal.Decimal {
	total := decimal.Zero
	for _, j := range journals {
		total = total.Add(j.Amount)
	}
	return total
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
