package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/7174Andy/expense-tracker/internal/cli"
	"github.com/7174Andy/expense-tracker/internal/config"
	"github.com/7174Andy/expense-tracker/internal/core"
	"github.com/7174Andy/expense-tracker/internal/merchant"
	"github.com/7174Andy/expense-tracker/internal/services"
)

const usage = `Usage: expense-tracker <command> [flags]

Commands:
  add           record a transaction (auto-categorized when no category given)
  list          list transactions, optionally filtered by keyword
  set-category  change a transaction's category and propagate the mapping
  suggest       show the category the engine would pick for a description
  recategorize  re-run categorization over all uncategorized transactions
  import        bulk-load transactions from a CSV file, skipping duplicates
  delete        delete one or more transactions by id
  stats         show monthly metrics and the cashflow trend
`

type app struct {
	cfg          *config.Config
	transactions *services.TransactionService
	statistics   *services.StatisticsService
	engine       *merchant.Service
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel())

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	engine := merchant.NewService(repo, repo, merchant.Config{Threshold: cfg.FuzzyThreshold})
	a := &app{
		cfg:          cfg,
		transactions: services.NewTransactionService(repo, engine),
		statistics:   services.NewStatisticsService(repo),
		engine:       engine,
	}

	ctx := context.Background()
	var err error
	switch cmd := os.Args[1]; cmd {
	case "add":
		err = a.runAdd(ctx, os.Args[2:])
	case "list":
		err = a.runList(ctx, os.Args[2:])
	case "set-category":
		err = a.runSetCategory(ctx, os.Args[2:])
	case "suggest":
		err = a.runSuggest(ctx, os.Args[2:])
	case "recategorize":
		err = a.runRecategorize(ctx)
	case "import":
		err = a.runImport(ctx, os.Args[2:])
	case "delete":
		err = a.runDelete(ctx, os.Args[2:])
	case "stats":
		err = a.runStats(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	date := fs.String("date", "", "transaction date (YYYY-MM-DD)")
	amount := fs.String("amount", "", "signed amount; positive = income, negative = expense")
	category := fs.String("category", "", "category (omit to auto-categorize)")
	description := fs.String("description", "", "free-text description")
	fs.Parse(args)

	d, err := core.ParseDate(*date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", *date, err)
	}
	cents, err := core.ParseAmountToCents(*amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", *amount, err)
	}

	saved, err := a.transactions.Add(ctx, core.Transaction{
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Category:    *category,
		Description: *description,
	})
	if err != nil {
		return err
	}
	fmt.Printf("#%d  %s  %10.2f  %-16s %s\n",
		saved.ID, saved.Date.ISO(), saved.Amount.Units(), saved.Category, saved.Description)
	return nil
}

func (a *app) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	keyword := fs.String("search", "", "keyword filter on descriptions")
	limit := fs.Int("limit", 100, "max rows")
	offset := fs.Int("offset", 0, "rows to skip")
	fs.Parse(args)

	txns, err := a.transactions.List(ctx, *keyword, *limit, *offset)
	if err != nil {
		return err
	}
	for _, t := range txns {
		fmt.Printf("#%d  %s  %10.2f  %-16s %s\n",
			t.ID, t.Date.ISO(), t.Amount.Units(), t.Category, t.Description)
	}
	return nil
}

func (a *app) runSetCategory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-category", flag.ExitOnError)
	id := fs.Int64("id", 0, "transaction id")
	category := fs.String("category", "", "new category")
	fs.Parse(args)

	if *id == 0 || strings.TrimSpace(*category) == "" {
		return fmt.Errorf("both -id and -category are required")
	}

	swept, err := a.transactions.Update(ctx, *id, core.TransactionUpdate{Category: category})
	if err != nil {
		return err
	}
	if swept {
		fmt.Println("category updated; mapping learned and uncategorized transactions re-checked")
	} else {
		fmt.Println("category unchanged")
	}
	return nil
}

func (a *app) runSuggest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	amount := fs.String("amount", "-1", "signed amount the transaction would have")
	description := fs.String("description", "", "free-text description")
	fs.Parse(args)

	cents, err := core.ParseAmountToCents(*amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", *amount, err)
	}
	category, err := a.transactions.SuggestCategory(ctx, *description, core.Money{Cents: cents})
	if err != nil {
		return err
	}
	fmt.Println(category)
	return nil
}

func (a *app) runRecategorize(ctx context.Context) error {
	updated, err := a.engine.RecategorizeUncategorized(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d transaction(s) recategorized\n", updated)
	return nil
}

// runImport reads a CSV with columns date,amount,category,description.
// The category column may be left empty to let the engine categorize.
func (a *app) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	path := fs.String("file", "", "CSV file to import")
	skipHeader := fs.Bool("skip-header", true, "skip the first row")
	fs.Parse(args)

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", *path, err)
	}
	if *skipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	txns := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		d, err := core.ParseDate(row[0])
		if err != nil {
			return fmt.Errorf("row %d: parse date %q: %w", i+1, row[0], err)
		}
		cents, err := core.ParseAmountToCents(row[1])
		if err != nil {
			return fmt.Errorf("row %d: parse amount %q: %w", i+1, row[1], err)
		}
		txns = append(txns, core.Transaction{
			Date:        d,
			Amount:      core.Money{Cents: cents},
			Category:    strings.TrimSpace(row[2]),
			Description: strings.TrimSpace(row[3]),
		})
	}

	imported, err := a.transactions.Import(ctx, txns)
	if err != nil {
		return err
	}
	fmt.Printf("%d of %d transaction(s) imported\n", imported, len(txns))
	return nil
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("at least one transaction id is required")
	}
	ids := make([]int64, 0, fs.NArg())
	for _, arg := range fs.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}

	if len(ids) == 1 {
		if err := a.transactions.Delete(ctx, ids[0]); err != nil {
			return err
		}
		fmt.Println("1 transaction deleted")
		return nil
	}
	deleted, err := a.transactions.DeleteMany(ctx, ids)
	if err != nil {
		return err
	}
	fmt.Printf("%d transaction(s) deleted\n", deleted)
	return nil
}

func (a *app) runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	year := fs.Int("year", 0, "year (defaults to latest month with data)")
	month := fs.Int("month", 0, "month 1-12 (defaults to latest month with data)")
	daily := fs.Bool("daily", false, "also print per-day spending for the month")
	fs.Parse(args)

	if *year == 0 || *month == 0 {
		latest, err := a.statistics.LatestAvailableMonth(ctx)
		if err != nil {
			return err
		}
		*year, *month = latest.Year, latest.Month
	}

	m, err := a.statistics.MonthlyMetrics(ctx, *year, *month)
	if err != nil {
		return err
	}
	fmt.Printf("%d-%02d\n", m.Year, m.Month)
	fmt.Printf("  net income:      %10.2f\n", m.NetIncome.Units())
	fmt.Printf("  total expenses:  %10.2f over %d transaction(s)\n", m.TotalExpenses.Units(), m.TransactionCount)
	if m.TopCategory != "" {
		fmt.Printf("  top category:    %s (%.2f)\n", m.TopCategory, m.TopCategorySpending.Units())
	}
	if m.MonthOverMonthPct != nil {
		fmt.Printf("  vs last month:   %+.1f%%\n", *m.MonthOverMonthPct)
	}

	if *daily {
		heatmap, err := a.statistics.SpendingHeatmap(ctx, *year, *month)
		if err != nil {
			return err
		}
		days := make([]int, 0, len(heatmap))
		for day := range heatmap {
			days = append(days, day)
		}
		sort.Ints(days)
		fmt.Println("  daily spending:")
		for _, day := range days {
			fmt.Printf("    %02d %10.2f\n", day, heatmap[day].Units())
		}
	}

	trend, err := a.statistics.CashflowTrend(ctx, a.cfg.CashflowTrendMonths)
	if err != nil {
		return err
	}
	if len(trend) > 0 {
		fmt.Println("  cashflow trend:")
		for _, cf := range trend {
			fmt.Printf("    %d-%02d %10.2f\n", cf.Year, cf.Month, cf.Net.Units())
		}
	}
	return nil
}
