package models

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Budget struct {
	ID        int            `gorm:"primary_key" json:"id"`
	UserId    int            `gorm:"index;not null" json:"user_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	IsActive  *bool          `gorm:"not null;default:true" json:"is_active"`
	Limits    []BudgetLimit  `gorm:"foreignKey:BudgetId" json:"limits"`
	Tags      []Tag          `gorm:"many2many:budget_tags" json:"tags"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type NewBudget struct {
	Name     string   `json:"name" validate:"required,max=100"`
	IsActive *bool    `json:"is_active"`
	Tags     []string `json:"tags" validate:"dive,required,max=50"`
}

func (b Budget) GetId() int {
	return b.ID
}

// Active treats a missing flag as active, matching the column default.
func (b Budget) Active() bool {
	return b.IsActive == nil || *b.IsActive
}

// TagSet returns the budget's tag names, normalised for lookups.
func (b Budget) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(b.Tags))
	for _, t := range b.Tags {
		set[NormalizeTag(t.Name)] = struct{}{}
	}
	return set
}

func (b Budget) TagNames() []string {
	names := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// SplitByActive partitions budgets by their active flag, keeping input order.
func SplitByActive(budgets []*Budget) (active []*Budget, inactive []*Budget) {
	active = make([]*Budget, 0, len(budgets))
	inactive = make([]*Budget, 0)
	for _, b := range budgets {
		if b.Active() {
			active = append(active, b)
		} else {
			inactive = append(inactive, b)
		}
	}
	return active, inactive
}

type Tag struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"uniqueIndex:idx_tag_user_name;not null" json:"user_id"`
	Name      string    `gorm:"uniqueIndex:idx_tag_user_name;size:50;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
