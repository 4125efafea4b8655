package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// CategoryUncategorized is the sentinel for transactions awaiting
	// categorization.
	CategoryUncategorized = "Uncategorized"

	// CategoryIncome is assigned to every positive-amount transaction,
	// regardless of its description.
	CategoryIncome = "Income"
)

// dateLayout is the ISO format used everywhere a date is persisted.
const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. ID is zero until the record
	// has been persisted. Amount is signed: positive means income,
	// negative means expense.
	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money
		Category    string
		Description string
	}

	// MerchantMapping binds a normalized merchant key to a spending
	// category. One category per key; writes overwrite.
	MerchantMapping struct {
		MerchantKey string
		Category    string
	}

	// TransactionUpdate carries the fields of a transaction to change.
	// Nil fields are left untouched.
	TransactionUpdate struct {
		Date        *Date
		Amount      *Money
		Category    *string
		Description *string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyMerchantKey = errors.New("empty merchant key")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date in YYYY-MM-DD form, the persistence format.
func (d Date) ISO() string {
	return d.Format(dateLayout)
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month as an int (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// IsIncome reports whether the amount counts as income (strictly positive).
func (m Money) IsIncome() bool {
	return m.Cents > 0
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (m MerchantMapping) Validate() error {
	if strings.TrimSpace(m.MerchantKey) == "" {
		return ErrEmptyMerchantKey
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
