package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/7174Andy/expense-tracker/internal/core"
)

// DefaultTrendMonths is how many months the cashflow trend covers when the
// caller does not say otherwise.
const DefaultTrendMonths = 6

// StatisticsRepository is the read-only aggregation surface the statistics
// service composes.
type StatisticsRepository interface {
	NetIncome(ctx context.Context, start, end core.Date) (core.Money, error)
	TopSpendingCategory(ctx context.Context, start, end core.Date) (*core.CategoryAmount, error)
	TotalExpense(ctx context.Context, start, end core.Date) (core.Money, error)
	TransactionCount(ctx context.Context, start, end core.Date) (int, error)
	DailySpendingRange(ctx context.Context, start, end core.Date) (map[int]core.Money, error)
	MonthlyCashflowTrend(ctx context.Context, numMonths int) ([]core.MonthCashflow, error)
	MonthsWithData(ctx context.Context) ([]core.YearMonth, error)
	LatestMonthWithData(ctx context.Context) (core.YearMonth, error)
}

// StatisticsService combines repository aggregations into the summaries
// the UI renders.
type StatisticsService struct {
	repo StatisticsRepository
}

func NewStatisticsService(repo StatisticsRepository) *StatisticsService {
	return &StatisticsService{repo: repo}
}

// monthRange returns the [start, end) date range covering one month.
func monthRange(year, month int) (core.Date, core.Date) {
	start := core.NewDate(year, month, 1)
	if month == 12 {
		return start, core.NewDate(year+1, 1, 1)
	}
	return start, core.NewDate(year, month+1, 1)
}

// MonthlyMetrics gathers the monthly summary. The underlying queries are
// independent, so they run concurrently.
func (s *StatisticsService) MonthlyMetrics(ctx context.Context, year, month int) (core.MonthlyMetrics, error) {
	start, end := monthRange(year, month)

	prevYear, prevMonth := year, month-1
	if month == 1 {
		prevYear, prevMonth = year-1, 12
	}
	prevStart, prevEnd := monthRange(prevYear, prevMonth)

	var (
		netIncome     core.Money
		topCategory   *core.CategoryAmount
		totalExpenses core.Money
		count         int
		prevExpenses  core.Money
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		netIncome, err = s.repo.NetIncome(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		topCategory, err = s.repo.TopSpendingCategory(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		totalExpenses, err = s.repo.TotalExpense(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		count, err = s.repo.TransactionCount(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		prevExpenses, err = s.repo.TotalExpense(gctx, prevStart, prevEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyMetrics{}, fmt.Errorf("monthly metrics %d-%02d: %w", year, month, err)
	}

	metrics := core.MonthlyMetrics{
		Year:              year,
		Month:             month,
		NetIncome:         netIncome,
		TotalExpenses:     totalExpenses,
		TransactionCount:  count,
		PrevMonthExpenses: prevExpenses,
	}
	if topCategory != nil {
		metrics.TopCategory = topCategory.Name
		metrics.TopCategorySpending = topCategory.Amount
	}
	if count > 0 {
		metrics.AvgTransaction = core.Money{Cents: totalExpenses.Cents / int64(count)}
	}
	if prevExpenses.Cents > 0 {
		pct := float64(totalExpenses.Cents-prevExpenses.Cents) / float64(prevExpenses.Cents) * 100
		metrics.MonthOverMonthPct = &pct
	}
	return metrics, nil
}

// SpendingHeatmap returns daily expense totals for one month, keyed by
// day of month.
func (s *StatisticsService) SpendingHeatmap(ctx context.Context, year, month int) (map[int]core.Money, error) {
	start, end := monthRange(year, month)
	return s.repo.DailySpendingRange(ctx, start, end)
}

// CashflowTrend returns per-month net amounts for the most recent
// numMonths months, oldest first. Non-positive numMonths selects
// DefaultTrendMonths.
func (s *StatisticsService) CashflowTrend(ctx context.Context, numMonths int) ([]core.MonthCashflow, error) {
	if numMonths <= 0 {
		numMonths = DefaultTrendMonths
	}
	return s.repo.MonthlyCashflowTrend(ctx, numMonths)
}

// AvailableMonths lists months that have transaction data, most recent
// first.
func (s *StatisticsService) AvailableMonths(ctx context.Context) ([]core.YearMonth, error) {
	return s.repo.MonthsWithData(ctx)
}

// LatestAvailableMonth returns the most recent month with data, or the
// current month when the store is empty.
func (s *StatisticsService) LatestAvailableMonth(ctx context.Context) (core.YearMonth, error) {
	return s.repo.LatestMonthWithData(ctx)
}
