package models

import "time"

type Account struct {
	ID          int         `gorm:"primary_key" json:"id"`
	UserId      int         `gorm:"index;not null" json:"user_id"`
	Name        string      `gorm:"index;size:100;not null" json:"name"`
	AccountType AccountType `gorm:"size:20;not null;default:'Asset'" json:"account_type"`
	IsActive    *bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// OwnedBy reports whether the account belongs to userId. Placeholder
// accounts produced for unknown ids are never owned.
func (a *Account) OwnedBy(userId int) bool {
	return a != nil && a.ID > 0 && a.UserId > 0 && a.UserId == userId
}
