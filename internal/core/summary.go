package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int // 1-12
}

// MonthCashflow is the net amount (income minus expenses) for one month.
type MonthCashflow struct {
	Year  int
	Month int // 1-12
	Net   Money
}

// MonthlyMetrics is a compact statistics summary for a specific year+month.
type MonthlyMetrics struct {
	Year                int
	Month               int // 1-12
	NetIncome           Money
	TopCategory         string // empty when the month has no expenses
	TopCategorySpending Money
	TotalExpenses       Money
	TransactionCount    int
	AvgTransaction      Money
	PrevMonthExpenses   Money
	// MonthOverMonthPct is nil when the previous month had no expenses.
	MonthOverMonthPct *float64
}
