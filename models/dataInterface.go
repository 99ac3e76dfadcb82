package models

import (
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// placeholder for ids the store does not know; UserId 0 is never an owner
func (a Account) GetId() int {
	return a.ID
}

func (a Account) GetDefault(id int) Data {
	return Account{
		ID:          id,
		AccountType: AccountTypeExpense,
		IsActive:    utils.NewFalse(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
