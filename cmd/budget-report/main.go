package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/models/reports"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"bitbucket.org/mmdatafocus/budgets_backend/workflow"
)

// budget-report prints per-budget spending for a date range and optionally
// writes it to a spreadsheet.
//
// Monthly expenses of active budgets:
//   go run ./cmd/budget-report -user-id=7 -start=2024-01-01 -end=2024-12-31
//
// Yearly, restricted to accounts, exported:
//   go run ./cmd/budget-report -user-id=7 -view=year -accounts=1,2 -start=2022-01-01 -end=2024-12-31 -out=spend.xlsx
//
// Views: month, year, budgeted, limits. The summary always ends with
// unbudgeted and total expenses.
func main() {
	userID := flag.Int("user-id", 0, "Owner of the budgets (0 = all users)")
	startStr := flag.String("start", "", "Required: first day (YYYY-MM-DD)")
	endStr := flag.String("end", "", "Required: last day (YYYY-MM-DD)")
	view := flag.String("view", "month", "month | year | budgeted | limits")
	accountsStr := flag.String("accounts", "", "Optional: comma separated source account ids")
	inactive := flag.Bool("inactive", false, "Report inactive budgets instead of active ones")
	out := flag.String("out", "", "Optional: write the series to this .xlsx file")
	migrate := flag.Bool("migrate", false, "Run table migrations first")
	flag.Parse()

	start, err := utils.ParseDate(*startStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--start must be YYYY-MM-DD")
		os.Exit(1)
	}
	end, err := utils.ParseDate(*endStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--end must be YYYY-MM-DD")
		os.Exit(1)
	}
	accounts, err := parseIds(*accountsStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "--accounts: %v\n", err)
		os.Exit(1)
	}

	ctx := utils.WithNewCorrelationId(context.Background())
	if *userID > 0 {
		ctx = utils.SetUserIdInContext(ctx, *userID)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if *migrate {
		if err := models.Migrate(config.GetDB()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
			os.Exit(1)
		}
	}
	if config.ReportCacheEnabled() || config.LimitLockEnabled() {
		config.ConnectRedisWithRetry(ctx, 3)
	}

	repo := workflow.DefaultBudgetRepository()
	if err := run(ctx, repo, *view, *inactive, accounts, start, end, *out); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, repo *workflow.BudgetRepository, view string, inactive bool, accounts []int, start, end time.Time, out string) error {
	budgets, err := repo.ActiveBudgets(ctx)
	if inactive {
		budgets, err = repo.InactiveBudgets(ctx)
	}
	if err != nil {
		return err
	}

	var series []reports.BudgetSeries
	switch view {
	case "month":
		series, err = repo.ExpensesPerMonth(ctx, budgets, accounts, start, end)
	case "year":
		series, err = repo.ExpensesPerYear(ctx, budgets, accounts, start, end)
	case "budgeted":
		series, err = repo.BudgetedPerYear(ctx, budgets, start, end)
	case "limits":
		return printLimits(ctx, repo, start, end)
	default:
		return fmt.Errorf("unknown view %q", view)
	}
	if err != nil {
		return err
	}

	for _, s := range series {
		fmt.Printf("%-30s", s.Budget.Name)
		for _, a := range s.Amounts {
			fmt.Printf(" %s=%s", a.Label, a.Amount.StringFixed(2))
		}
		fmt.Printf(" total=%s\n", s.Total().StringFixed(2))
	}

	without, err := repo.WithoutBudgetSum(ctx, start, end)
	if err != nil {
		return err
	}
	total, err := repo.TotalExpenses(ctx, start, end)
	if err != nil {
		return err
	}
	fmt.Printf("budgets=%d unbudgeted=%s total=%s\n", len(series), without.StringFixed(2), total.StringFixed(2))

	if out == "" {
		return nil
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	title := fmt.Sprintf("%s %s to %s", view, start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err := repo.ExportExcel(f, title, series); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func printLimits(ctx context.Context, repo *workflow.BudgetRepository, start, end time.Time) error {
	result, err := repo.BudgetsAndLimitsInRange(ctx, start, end)
	if err != nil {
		return err
	}
	for _, r := range result {
		fmt.Printf("%s (id=%d)\n", r.Budget.Name, r.Budget.ID)
		for _, rep := range r.Repetitions {
			fmt.Printf("  %s  %s .. %s  %s\n", rep.Id(), rep.StartDate.Format(time.DateOnly),
				rep.EndDate.Format(time.DateOnly), rep.Amount.StringFixed(2))
		}
	}
	return nil
}

func parseIds(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ids := make([]int, 0)
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return utils.SortedInts(ids), nil
}
