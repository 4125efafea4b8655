package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/7174Andy/expense-tracker/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository backs both the transaction store and the merchant
// mapping store with a single SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t       core.Transaction
		isoDate string
	)
	if err := row.Scan(&t.ID, &isoDate, &t.Amount.Cents, &t.Category, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(isoDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", isoDate, err)
	}
	t.Date = date
	return t, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// InsertTransaction persists a new transaction and returns it with its
// assigned ID.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, amount_cents, category, description)
		 VALUES (?, ?, ?, ?)`,
		t.Date.ISO(), t.Amount.Cents, t.Category, t.Description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	return t, nil
}

// GetTransaction returns the transaction with the given ID, or nil when it
// does not exist.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, amount_cents, category, description
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &t, nil
}

// ListTransactions returns transactions ordered most recent first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, limit, offset int) ([]core.Transaction, error) {
	txns, err := r.queryTransactions(ctx,
		`SELECT id, date, amount_cents, category, description
		 FROM transactions ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// SearchTransactions filters by a case-insensitive keyword on the
// description. An empty keyword lists everything.
func (r *SQLiteRepository) SearchTransactions(ctx context.Context, keyword string, limit, offset int) ([]core.Transaction, error) {
	if keyword == "" {
		return r.ListTransactions(ctx, limit, offset)
	}
	txns, err := r.queryTransactions(ctx,
		`SELECT id, date, amount_cents, category, description
		 FROM transactions
		 WHERE description LIKE ? COLLATE NOCASE
		 ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`,
		"%"+keyword+"%", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	return txns, nil
}

// CountTransactions counts transactions matching the keyword; an empty
// keyword counts all.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, keyword string) (int, error) {
	var (
		count int
		err   error
	)
	if keyword == "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions`).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE description LIKE ? COLLATE NOCASE`,
			"%"+keyword+"%").Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// TransactionsByCategory implements merchant.TransactionStore.
func (r *SQLiteRepository) TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	txns, err := r.queryTransactions(ctx,
		`SELECT id, date, amount_cents, category, description
		 FROM transactions WHERE category = ? ORDER BY date DESC, id DESC`,
		category)
	if err != nil {
		return nil, fmt.Errorf("transactions by category %q: %w", category, err)
	}
	return txns, nil
}

// UpdateTransactionCategory implements merchant.TransactionStore.
func (r *SQLiteRepository) UpdateTransactionCategory(ctx context.Context, id int64, category string) error {
	if strings.TrimSpace(category) == "" {
		return core.ErrEmptyCategory
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE id = ?`, category, id); err != nil {
		return fmt.Errorf("update transaction %d category: %w", id, err)
	}
	return nil
}

// UpdateTransaction applies the non-nil fields of upd to one transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, upd.Date.ISO())
	}
	if upd.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, upd.Amount.Cents)
	}
	if upd.Category != nil {
		if strings.TrimSpace(*upd.Category) == "" {
			return core.ErrEmptyCategory
		}
		sets = append(sets, "category = ?")
		args = append(args, *upd.Category)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := "UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return nil
}

// TransactionExists reports whether an identical transaction (same date,
// amount and description) is already stored. Used for import
// deduplication.
func (r *SQLiteRepository) TransactionExists(ctx context.Context, t core.Transaction) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE date = ? AND amount_cents = ? AND description = ?`,
		t.Date.ISO(), t.Amount.Cents, t.Description).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// DeleteTransactions removes every listed ID and returns how many rows
// were actually deleted.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}
