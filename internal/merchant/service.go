package merchant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/7174Andy/expense-tracker/internal/core"
)

// DefaultThreshold is the minimum similarity score a fuzzy candidate must
// reach before its mapping is trusted.
const DefaultThreshold = 90

// MappingStore is the persistent merchant-key -> category table.
type MappingStore interface {
	// GetMapping returns the mapping for an exact key, or nil when absent.
	GetMapping(ctx context.Context, merchantKey string) (*core.MerchantMapping, error)
	// SetMapping upserts a mapping; last write wins.
	SetMapping(ctx context.Context, mapping core.MerchantMapping) error
	// ListMappings enumerates all mappings in a stable order. The result
	// is the fuzzy-match candidate pool.
	ListMappings(ctx context.Context) ([]core.MerchantMapping, error)
}

// TransactionStore is the slice of transaction persistence the
// recategorization sweep needs.
type TransactionStore interface {
	TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, id int64, category string) error
}

// Config holds the tunables of the categorization engine.
type Config struct {
	// Threshold is the minimum fuzzy similarity score (0-100). Zero or
	// negative selects DefaultThreshold.
	Threshold int

	// Scorer computes the similarity between two merchant keys. Nil
	// selects LevenshteinScore.
	Scorer Scorer
}

// Service is the merchant categorization engine plus its retroactive
// recategorization sweep.
type Service struct {
	mappings     MappingStore
	transactions TransactionStore
	score        Scorer
	threshold    int
}

func NewService(mappings MappingStore, transactions TransactionStore, cfg Config) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Scorer == nil {
		cfg.Scorer = LevenshteinScore
	}
	return &Service{
		mappings:     mappings,
		transactions: transactions,
		score:        cfg.Scorer,
		threshold:    cfg.Threshold,
	}
}

// Categorize decides the category for a single transaction. Positive
// amounts are income regardless of merchant text. Otherwise the normalized
// description is looked up exactly, then fuzzily; with no match the
// sentinel category is returned. A lookup miss is never an error; only
// store failures are.
func (s *Service) Categorize(ctx context.Context, description string, amount core.Money) (string, error) {
	if amount.IsIncome() {
		return core.CategoryIncome, nil
	}

	key := Normalize(description)

	mapping, err := s.mappings.GetMapping(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get mapping %q: %w", key, err)
	}
	if mapping != nil {
		return mapping.Category, nil
	}

	match, ok, err := s.FuzzyLookup(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		mapping, err = s.mappings.GetMapping(ctx, match)
		if err != nil {
			return "", fmt.Errorf("get mapping %q: %w", match, err)
		}
		if mapping != nil {
			return mapping.Category, nil
		}
	}

	return core.CategoryUncategorized, nil
}

// FuzzyLookup returns the stored merchant key scoring highest against key,
// provided the score reaches the threshold. Ties keep the candidate
// encountered first in the store's enumeration, so the result is
// deterministic for a given store state. With an empty store the lookup
// reports no match.
func (s *Service) FuzzyLookup(ctx context.Context, key string) (string, bool, error) {
	mappings, err := s.mappings.ListMappings(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list mappings: %w", err)
	}
	if len(mappings) == 0 {
		return "", false, nil
	}

	best := -1
	var bestKey string
	for _, m := range mappings {
		if score := s.score(key, m.MerchantKey); score > best {
			best = score
			bestKey = m.MerchantKey
		}
	}
	if best < s.threshold {
		return "", false, nil
	}
	return bestKey, true, nil
}

// UpdateCategory records which category a merchant's transactions belong
// to, keyed by the normalized description. Overwrites any previous
// mapping. Callers that want existing uncategorized transactions to pick
// up the change run RecategorizeUncategorized afterwards; the two steps
// are deliberately not coupled here.
func (s *Service) UpdateCategory(ctx context.Context, description, category string) error {
	mapping := core.MerchantMapping{
		MerchantKey: Normalize(description),
		Category:    category,
	}
	if err := mapping.Validate(); err != nil {
		return err
	}
	if err := s.mappings.SetMapping(ctx, mapping); err != nil {
		return fmt.Errorf("set mapping %q: %w", mapping.MerchantKey, err)
	}
	slog.InfoContext(ctx, "Merchant mapping updated",
		"merchant_key", mapping.MerchantKey,
		"category", category)
	return nil
}

// RecategorizeUncategorized re-runs categorization over every transaction
// still carrying the sentinel category and persists any better answer.
// Transactions that remain uncategorized are not written. A failing record
// does not stop the sweep; per-record failures are joined into the
// returned error. Returns the number of transactions updated.
func (s *Service) RecategorizeUncategorized(ctx context.Context) (int, error) {
	txns, err := s.transactions.TransactionsByCategory(ctx, core.CategoryUncategorized)
	if err != nil {
		return 0, fmt.Errorf("list uncategorized transactions: %w", err)
	}

	var updated int
	var errs []error
	for _, txn := range txns {
		category, err := s.Categorize(ctx, txn.Description, txn.Amount)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %d: %w", txn.ID, err))
			continue
		}
		if category == core.CategoryUncategorized {
			continue
		}
		if err := s.transactions.UpdateTransactionCategory(ctx, txn.ID, category); err != nil {
			errs = append(errs, fmt.Errorf("update transaction %d: %w", txn.ID, err))
			continue
		}
		updated++
	}

	if updated > 0 {
		slog.InfoContext(ctx, "Recategorized transactions",
			"updated", updated,
			"scanned", len(txns))
	}
	return updated, errors.Join(errs...)
}
