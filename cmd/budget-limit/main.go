package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"bitbucket.org/mmdatafocus/budgets_backend/workflow"
)

// budget-limit sets the amount budgeted for the period covering a date.
// An amount of zero removes the covering limit.
//
//   go run ./cmd/budget-limit -user-id=7 -budget-id=3 -date=2024-03-15 -amount="Ks 150,000"
func main() {
	userID := flag.Int("user-id", 0, "Required: owner of the budget")
	budgetID := flag.Int("budget-id", 0, "Required: budget id")
	dateStr := flag.String("date", "", "Required: a day inside the period (YYYY-MM-DD)")
	amountStr := flag.String("amount", "", "Required: new amount, e.g. 150000 or \"Ks 150,000\"")
	flag.Parse()

	if *userID <= 0 || *budgetID <= 0 {
		fmt.Fprintln(os.Stderr, "--user-id and --budget-id are required")
		os.Exit(1)
	}
	date, err := utils.ParseDate(*dateStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--date must be YYYY-MM-DD")
		os.Exit(1)
	}
	amount, err := utils.ParseDecimal(*amountStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "--amount: %v\n", err)
		os.Exit(1)
	}

	ctx := utils.SetUserIdInContext(utils.WithNewCorrelationId(context.Background()), *userID)
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if config.ReportCacheEnabled() || config.LimitLockEnabled() {
		config.ConnectRedisWithRetry(ctx, 3)
	}
	repo := workflow.DefaultBudgetRepository()

	budget, err := repo.FindBudget(ctx, *budgetID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "budget %d: %v\n", *budgetID, err)
		os.Exit(1)
	}
	limit, err := repo.UpdateLimitAmount(ctx, budget, date, amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		os.Exit(1)
	}
	if limit == nil {
		fmt.Printf("%s: no limit covers %s\n", budget.Name, date.Format(time.DateOnly))
		return
	}
	fmt.Printf("%s: limit %d from %s (%s) = %s\n", budget.Name, limit.ID,
		limit.StartDate.Format(time.DateOnly), limit.RepeatFreq, limit.Amount.StringFixed(2))
}
