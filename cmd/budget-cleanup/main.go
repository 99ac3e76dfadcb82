package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"bitbucket.org/mmdatafocus/budgets_backend/workflow"
)

// budget-cleanup removes zero amount limits, limits of deleted budgets and
// duplicate limits (same budget, start and frequency).
//
// Dry-run (default): show counts only
//   go run ./cmd/budget-cleanup
//
// Execute:
//   go run ./cmd/budget-cleanup -dry-run=false -confirm=DELETE
func main() {
	dryRun := flag.Bool("dry-run", true, "Count only (no writes)")
	confirm := flag.String("confirm", "", "Type DELETE to proceed when dry-run=false")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*confirm) != "DELETE" {
		fmt.Fprintln(os.Stderr, "set --confirm=DELETE to proceed")
		os.Exit(1)
	}

	ctx := utils.WithNewCorrelationId(context.Background())
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if config.ReportCacheEnabled() || config.LimitLockEnabled() {
		config.ConnectRedisWithRetry(ctx, 3)
	}
	repo := workflow.DefaultBudgetRepository()

	if *dryRun {
		plan, err := repo.PlanCleanup(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cleanup plan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dry-run: would delete %d limits (zero_amount=%d orphaned=%d duplicates=%d)\n",
			plan.Total(), plan.ZeroAmount, plan.Orphaned, plan.Duplicates)
		return
	}

	result, err := repo.CleanupBudgets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %d limits (zero_amount=%d orphaned=%d duplicates=%d)\n",
		result.Total(), result.ZeroAmount, result.Orphaned, result.Duplicates)
}
