package models

import (
	"errors"
	"strings"
)

type RepeatFreq string

const (
	RepeatFreqWeek    RepeatFreq = "week"
	RepeatFreqMonth   RepeatFreq = "month"
	RepeatFreqQuarter RepeatFreq = "quarter"
	RepeatFreqYear    RepeatFreq = "year"
)

func (f RepeatFreq) IsValid() bool {
	switch f {
	case RepeatFreqWeek, RepeatFreqMonth, RepeatFreqQuarter, RepeatFreqYear:
		return true
	}
	return false
}

func ParseRepeatFreq(s string) (RepeatFreq, error) {
	repeatFreqs := map[string]RepeatFreq{
		"week":    RepeatFreqWeek,
		"weekly":  RepeatFreqWeek,
		"month":   RepeatFreqMonth,
		"monthly": RepeatFreqMonth,
		"quarter": RepeatFreqQuarter,
		"year":    RepeatFreqYear,
		"yearly":  RepeatFreqYear,
	}
	f, ok := repeatFreqs[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errors.New("invalid repeat frequency: " + s)
	}
	return f, nil
}

type TransactionType string

const (
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeTransfer   TransactionType = "Transfer"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeCash      AccountType = "Cash"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeExpense   AccountType = "Expense"
	AccountTypeRevenue   AccountType = "Revenue"
)
