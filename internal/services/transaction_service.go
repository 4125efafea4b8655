// Package services holds the orchestration layer between storage and the
// merchant categorization engine. Categorization ownership lives here so
// every entry point (manual add, import, edit) behaves identically.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/7174Andy/expense-tracker/internal/core"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository is the persistence surface the service needs.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	SearchTransactions(ctx context.Context, keyword string, limit, offset int) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, keyword string) (int, error)
	UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) error
	TransactionExists(ctx context.Context, t core.Transaction) (bool, error)
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransactions(ctx context.Context, ids []int64) (int64, error)
}

// Categorizer is the merchant categorization engine as the service sees
// it.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amount core.Money) (string, error)
	UpdateCategory(ctx context.Context, description, category string) error
	RecategorizeUncategorized(ctx context.Context) (int, error)
}

// TransactionService coordinates transaction writes with
// auto-categorization.
type TransactionService struct {
	repo     TransactionRepository
	merchant Categorizer
}

func NewTransactionService(repo TransactionRepository, merchant Categorizer) *TransactionService {
	return &TransactionService{
		repo:     repo,
		merchant: merchant,
	}
}

// Add persists a transaction. When its category is empty or the sentinel,
// the merchant engine decides the category first, so nothing lands in the
// store as "Uncategorized" if a mapping already covers it.
func (s *TransactionService) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Category == "" {
		t.Category = core.CategoryUncategorized
	}
	if t.Category == core.CategoryUncategorized {
		category, err := s.merchant.Categorize(ctx, t.Description, t.Amount)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("categorize: %w", err)
		}
		t.Category = category
	}
	return s.repo.InsertTransaction(ctx, t)
}

// Get returns the transaction with the given ID, or nil when absent.
func (s *TransactionService) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transactions matching the keyword (all when empty), most
// recent first.
func (s *TransactionService) List(ctx context.Context, keyword string, limit, offset int) ([]core.Transaction, error) {
	return s.repo.SearchTransactions(ctx, keyword, limit, offset)
}

// Update applies changes to one transaction. A human edit that changes the
// category is a teaching signal: the merchant mapping is updated with the
// transaction's original description and the recategorization sweep runs,
// so other uncategorized transactions from the same merchant follow.
// Returns whether the sweep ran.
//
// The mapping update and the sweep are not wrapped in one cross-store
// transaction; a crash in between can leave the mapping updated without
// propagation. That gap is accepted, and a later sweep heals it.
func (s *TransactionService) Update(ctx context.Context, id int64, upd core.TransactionUpdate) (bool, error) {
	prev, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get transaction %d: %w", id, err)
	}
	if prev == nil {
		return false, fmt.Errorf("transaction %d: %w", id, ErrTransactionNotFound)
	}

	if err := s.repo.UpdateTransaction(ctx, id, upd); err != nil {
		return false, err
	}

	if upd.Category == nil || *upd.Category == prev.Category {
		return false, nil
	}

	if err := s.merchant.UpdateCategory(ctx, prev.Description, *upd.Category); err != nil {
		return false, fmt.Errorf("update merchant mapping: %w", err)
	}
	updated, err := s.merchant.RecategorizeUncategorized(ctx)
	if err != nil {
		// The edit itself succeeded; report the partial sweep.
		return true, fmt.Errorf("recategorize after edit: %w", err)
	}
	slog.InfoContext(ctx, "Category edit propagated",
		"id", id,
		"category", *upd.Category,
		"recategorized", updated)
	return true, nil
}

// SuggestCategory asks the merchant engine what a transaction with this
// description and amount would be categorized as, without persisting
// anything.
func (s *TransactionService) SuggestCategory(ctx context.Context, description string, amount core.Money) (string, error) {
	return s.merchant.Categorize(ctx, description, amount)
}

// Import persists a batch of transactions, auto-categorizing records
// that carry no explicit category and skipping records that already
// exist (same date, amount and description). Returns how many were
// imported.
func (s *TransactionService) Import(ctx context.Context, txns []core.Transaction) (int, error) {
	var imported int
	for _, t := range txns {
		if t.Category == "" || t.Category == core.CategoryUncategorized {
			category, err := s.merchant.Categorize(ctx, t.Description, t.Amount)
			if err != nil {
				return imported, fmt.Errorf("categorize %q: %w", t.Description, err)
			}
			t.Category = category
		}

		exists, err := s.repo.TransactionExists(ctx, t)
		if err != nil {
			return imported, err
		}
		if exists {
			continue
		}
		if _, err := s.repo.InsertTransaction(ctx, t); err != nil {
			return imported, err
		}
		imported++
	}
	slog.InfoContext(ctx, "Transactions imported",
		"imported", imported,
		"skipped", len(txns)-imported)
	return imported, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteTransaction(ctx, id)
}

func (s *TransactionService) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	return s.repo.DeleteTransactions(ctx, ids)
}
