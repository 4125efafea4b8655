package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/7174Andy/expense-tracker/internal/core"
)

// NetIncome sums all amounts (income minus expenses) for dates in
// [start, end).
func (r *SQLiteRepository) NetIncome(ctx context.Context, start, end core.Date) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE date >= ? AND date < ?`,
		start.ISO(), end.ISO()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("net income: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

// TopSpendingCategory returns the category with the highest expense total
// for dates in [start, end), or nil when the range has no expenses.
func (r *SQLiteRepository) TopSpendingCategory(ctx context.Context, start, end core.Date) (*core.CategoryAmount, error) {
	var ca core.CategoryAmount
	err := r.db.QueryRowContext(ctx,
		`SELECT category, SUM(ABS(amount_cents)) AS total
		 FROM transactions
		 WHERE date >= ? AND date < ? AND amount_cents < 0
		 GROUP BY category
		 ORDER BY total DESC
		 LIMIT 1`,
		start.ISO(), end.ISO()).Scan(&ca.Name, &ca.Amount.Cents)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("top spending category: %w", err)
	}
	return &ca, nil
}

// TotalExpense sums expense magnitudes for dates in [start, end).
func (r *SQLiteRepository) TotalExpense(ctx context.Context, start, end core.Date) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(ABS(amount_cents)) FROM transactions
		 WHERE date >= ? AND date < ? AND amount_cents < 0`,
		start.ISO(), end.ISO()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total expense: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

// TransactionCount counts transactions with dates in [start, end).
func (r *SQLiteRepository) TransactionCount(ctx context.Context, start, end core.Date) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?`,
		start.ISO(), end.ISO()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("transaction count: %w", err)
	}
	return count, nil
}

// DailySpendingRange maps day-of-month to total expense magnitude for
// dates in [start, end). Days without expenses are absent.
func (r *SQLiteRepository) DailySpendingRange(ctx context.Context, start, end core.Date) (map[int]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%d', date) AS INTEGER) AS day,
		        SUM(ABS(amount_cents)) AS total
		 FROM transactions
		 WHERE date >= ? AND date < ? AND amount_cents < 0
		 GROUP BY day`,
		start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("daily spending range: %w", err)
	}
	defer rows.Close()

	result := make(map[int]core.Money)
	for rows.Next() {
		var (
			day   int
			cents int64
		)
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan daily spending: %w", err)
		}
		result[day] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily spending range: %w", err)
	}
	return result, nil
}

// MonthlyCashflowTrend returns net amounts for the most recent numMonths
// months with data, oldest first.
func (r *SQLiteRepository) MonthlyCashflowTrend(ctx context.Context, numMonths int) ([]core.MonthCashflow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%Y', date) AS INTEGER) AS year,
		        CAST(strftime('%m', date) AS INTEGER) AS month,
		        SUM(amount_cents) AS net
		 FROM transactions
		 GROUP BY year, month
		 ORDER BY year DESC, month DESC
		 LIMIT ?`,
		numMonths)
	if err != nil {
		return nil, fmt.Errorf("monthly cashflow trend: %w", err)
	}
	defer rows.Close()

	var trend []core.MonthCashflow
	for rows.Next() {
		var cf core.MonthCashflow
		if err := rows.Scan(&cf.Year, &cf.Month, &cf.Net.Cents); err != nil {
			return nil, fmt.Errorf("scan cashflow: %w", err)
		}
		trend = append(trend, cf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monthly cashflow trend: %w", err)
	}

	// Query is newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(trend)-1; i < j; i, j = i+1, j-1 {
		trend[i], trend[j] = trend[j], trend[i]
	}
	return trend, nil
}

// MonthsWithData lists every month having at least one transaction, most
// recent first.
func (r *SQLiteRepository) MonthsWithData(ctx context.Context) ([]core.YearMonth, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT
		        CAST(strftime('%Y', date) AS INTEGER) AS year,
		        CAST(strftime('%m', date) AS INTEGER) AS month
		 FROM transactions
		 ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("months with data: %w", err)
	}
	defer rows.Close()

	var months []core.YearMonth
	for rows.Next() {
		var ym core.YearMonth
		if err := rows.Scan(&ym.Year, &ym.Month); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		months = append(months, ym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("months with data: %w", err)
	}
	return months, nil
}

// LatestMonthWithData returns the most recent month having data, falling
// back to the current month when the database is empty.
func (r *SQLiteRepository) LatestMonthWithData(ctx context.Context) (core.YearMonth, error) {
	var ym core.YearMonth
	err := r.db.QueryRowContext(ctx,
		`SELECT CAST(strftime('%Y', date) AS INTEGER),
		        CAST(strftime('%m', date) AS INTEGER)
		 FROM transactions
		 ORDER BY date DESC
		 LIMIT 1`).Scan(&ym.Year, &ym.Month)
	if err == sql.ErrNoRows {
		now := time.Now()
		return core.YearMonth{Year: now.Year(), Month: int(now.Month())}, nil
	}
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("latest month with data: %w", err)
	}
	return ym, nil
}
