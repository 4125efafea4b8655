package merchant

import (
	"context"
	"errors"
	"testing"

	"github.com/7174Andy/expense-tracker/internal/core"
)

// fakeMappingStore keeps mappings in insertion order so tie-break behavior
// is observable.
type fakeMappingStore struct {
	mappings []core.MerchantMapping
	getErr   error
	listErr  error
}

func (f *fakeMappingStore) GetMapping(_ context.Context, key string) (*core.MerchantMapping, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, m := range f.mappings {
		if m.MerchantKey == key {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMappingStore) SetMapping(_ context.Context, mapping core.MerchantMapping) error {
	for i, m := range f.mappings {
		if m.MerchantKey == mapping.MerchantKey {
			f.mappings[i] = mapping
			return nil
		}
	}
	f.mappings = append(f.mappings, mapping)
	return nil
}

func (f *fakeMappingStore) ListMappings(_ context.Context) ([]core.MerchantMapping, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.MerchantMapping(nil), f.mappings...), nil
}

type fakeTransactionStore struct {
	txns       []core.Transaction
	failIDs    map[int64]error
	categories map[int64]string // writes recorded here
}

func (f *fakeTransactionStore) TransactionsByCategory(_ context.Context, category string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txns {
		cat := t.Category
		if c, ok := f.categories[t.ID]; ok {
			cat = c
		}
		if cat == category {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactionStore) UpdateTransactionCategory(_ context.Context, id int64, category string) error {
	if err := f.failIDs[id]; err != nil {
		return err
	}
	if f.categories == nil {
		f.categories = make(map[int64]string)
	}
	f.categories[id] = category
	return nil
}

func newTestService(mappings *fakeMappingStore, txns *fakeTransactionStore) *Service {
	return NewService(mappings, txns, Config{})
}

func TestCategorizeIncomeRule(t *testing.T) {
	svc := newTestService(&fakeMappingStore{}, &fakeTransactionStore{})

	got, err := svc.Categorize(context.Background(), "Some Merchant", core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != core.CategoryIncome {
		t.Errorf("positive amount should be %q, got %q", core.CategoryIncome, got)
	}
}

func TestCategorizeExactMatch(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "WHOLE FOODS", Category: "Groceries"},
	}}
	svc := newTestService(mappings, &fakeTransactionStore{})

	got, err := svc.Categorize(context.Background(), "Whole Foods", core.Money{Cents: -5000})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != "Groceries" {
		t.Errorf("expected Groceries, got %q", got)
	}
}

func TestCategorizeExactMatchWinsOverFuzzy(t *testing.T) {
	// Both keys are plausible candidates; only the exact key may decide.
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "STARBUCKS COFFEES", Category: "Dining"},
		{MerchantKey: "STARBUCKS COFFEE", Category: "Coffee"},
	}}
	svc := newTestService(mappings, &fakeTransactionStore{})

	got, err := svc.Categorize(context.Background(), "Starbucks Coffee", core.Money{Cents: -500})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != "Coffee" {
		t.Errorf("exact match should win, got %q", got)
	}
}

func TestCategorizeFuzzyMatch(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "STARBUCKS COFFEE", Category: "Coffee"},
	}}
	svc := newTestService(mappings, &fakeTransactionStore{})

	// Missing trailing "E": edit distance 1, score 94.
	got, err := svc.Categorize(context.Background(), "STARBUCKS COFFE", core.Money{Cents: -500})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != "Coffee" {
		t.Errorf("expected fuzzy match Coffee, got %q", got)
	}
}

func TestCategorizeBelowThresholdFallsBack(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "STARBUCKS COFFEE", Category: "Coffee"},
	}}
	svc := newTestService(mappings, &fakeTransactionStore{})

	got, err := svc.Categorize(context.Background(), "WALMART GROCERY", core.Money{Cents: -3000})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != core.CategoryUncategorized {
		t.Errorf("expected %q, got %q", core.CategoryUncategorized, got)
	}
}

func TestCategorizeEmptyStoreFallsBack(t *testing.T) {
	svc := newTestService(&fakeMappingStore{}, &fakeTransactionStore{})

	got, err := svc.Categorize(context.Background(), "Random Unknown Store", core.Money{Cents: -2500})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != core.CategoryUncategorized {
		t.Errorf("expected %q, got %q", core.CategoryUncategorized, got)
	}
}

func TestCategorizePropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("disk gone")
	svc := newTestService(&fakeMappingStore{getErr: storeErr}, &fakeTransactionStore{})

	_, err := svc.Categorize(context.Background(), "Whole Foods", core.Money{Cents: -100})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestFuzzyLookupEmptyStore(t *testing.T) {
	svc := newTestService(&fakeMappingStore{}, &fakeTransactionStore{})

	_, ok, err := svc.FuzzyLookup(context.Background(), "STARBUCKS")
	if err != nil {
		t.Fatalf("FuzzyLookup: %v", err)
	}
	if ok {
		t.Error("empty store should never produce a match")
	}
}

func TestFuzzyLookupClosestMatch(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "TRADER JOES", Category: "Groceries"},
	}}
	svc := newTestService(mappings, &fakeTransactionStore{})

	match, ok, err := svc.FuzzyLookup(context.Background(), "TRADER JOE'S")
	if err != nil {
		t.Fatalf("FuzzyLookup: %v", err)
	}
	if !ok || match != "TRADER JOES" {
		t.Errorf("expected TRADER JOES, got %q (ok=%v)", match, ok)
	}
}

func TestFuzzyLookupTieKeepsFirstCandidate(t *testing.T) {
	// A stub scorer making every candidate score identically; the first
	// enumerated key must win.
	constScorer := func(a, b string) int { return 95 }
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "FIRST KEY", Category: "A"},
		{MerchantKey: "SECOND KEY", Category: "B"},
	}}
	svc := NewService(mappings, &fakeTransactionStore{}, Config{Scorer: constScorer})

	match, ok, err := svc.FuzzyLookup(context.Background(), "ANYTHING")
	if err != nil {
		t.Fatalf("FuzzyLookup: %v", err)
	}
	if !ok || match != "FIRST KEY" {
		t.Errorf("tie should keep first candidate, got %q (ok=%v)", match, ok)
	}
}

func TestFuzzyLookupCustomThreshold(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "WHOLE FOODS MARKET", Category: "Groceries"},
	}}
	// Score for WHOLE FOODS vs WHOLE FOODS MARKET is 61.
	strict := NewService(mappings, &fakeTransactionStore{}, Config{Threshold: 70})
	lax := NewService(mappings, &fakeTransactionStore{}, Config{Threshold: 60})

	if _, ok, _ := strict.FuzzyLookup(context.Background(), "WHOLE FOODS"); ok {
		t.Error("score 61 should not pass threshold 70")
	}
	if _, ok, _ := lax.FuzzyLookup(context.Background(), "WHOLE FOODS"); !ok {
		t.Error("score 61 should pass threshold 60")
	}
}

func TestUpdateCategoryNormalizesAndOverwrites(t *testing.T) {
	mappings := &fakeMappingStore{}
	svc := newTestService(mappings, &fakeTransactionStore{})
	ctx := context.Background()

	if err := svc.UpdateCategory(ctx, "Starbucks Coffee 123", "Coffee"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	m, _ := mappings.GetMapping(ctx, "STARBUCKS COFFEE")
	if m == nil || m.Category != "Coffee" {
		t.Fatalf("expected STARBUCKS COFFEE -> Coffee, got %+v", m)
	}

	// Last write wins.
	if err := svc.UpdateCategory(ctx, "Starbucks Coffee", "Dining"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	m, _ = mappings.GetMapping(ctx, "STARBUCKS COFFEE")
	if m == nil || m.Category != "Dining" {
		t.Fatalf("expected overwrite to Dining, got %+v", m)
	}
	if len(mappings.mappings) != 1 {
		t.Fatalf("expected a single mapping, got %d", len(mappings.mappings))
	}
}

func TestUpdateCategorySharesKeyWithPlainDescription(t *testing.T) {
	// A store-numbered description and the bare merchant name reduce to
	// the same key, so teaching from one covers the other exactly.
	mappings := &fakeMappingStore{}
	svc := newTestService(mappings, &fakeTransactionStore{})
	ctx := context.Background()

	if err := svc.UpdateCategory(ctx, "Starbucks Coffee #123", "Coffee"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	got, err := svc.Categorize(ctx, "STARBUCKS COFFEE", core.Money{Cents: -500})
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != "Coffee" {
		t.Errorf("expected exact match Coffee, got %q", got)
	}
}

func TestUpdateCategoryIdempotent(t *testing.T) {
	mappings := &fakeMappingStore{}
	svc := newTestService(mappings, &fakeTransactionStore{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.UpdateCategory(ctx, "Pizza Place", "Dining"); err != nil {
			t.Fatalf("UpdateCategory: %v", err)
		}
	}
	if len(mappings.mappings) != 1 {
		t.Fatalf("expected a single mapping after repeat, got %d", len(mappings.mappings))
	}
}

func TestUpdateCategoryRejectsEmptyKey(t *testing.T) {
	svc := newTestService(&fakeMappingStore{}, &fakeTransactionStore{})

	if err := svc.UpdateCategory(context.Background(), "12345", "Dining"); err == nil {
		t.Fatal("all-digit description normalizes to empty key and must be rejected")
	}
}

func TestRecategorizeUpdatesOnlyMatchedTransactions(t *testing.T) {
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "WHOLE FOODS MARKET", Category: "Groceries"},
	}}
	txns := &fakeTransactionStore{txns: []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: -5000}, Category: core.CategoryUncategorized, Description: "Whole Foods Market"},
		{ID: 2, Amount: core.Money{Cents: -3000}, Category: core.CategoryUncategorized, Description: "Target Store"},
		{ID: 3, Amount: core.Money{Cents: -10000}, Category: "Shopping", Description: "Amazon"},
	}}
	svc := newTestService(mappings, txns)

	updated, err := svc.RecategorizeUncategorized(context.Background())
	if err != nil {
		t.Fatalf("RecategorizeUncategorized: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 update, got %d", updated)
	}
	if got := txns.categories[1]; got != "Groceries" {
		t.Errorf("transaction 1 should be Groceries, got %q", got)
	}
	if _, written := txns.categories[2]; written {
		t.Error("transaction 2 had no match and must not be written")
	}
	if _, written := txns.categories[3]; written {
		t.Error("already-categorized transaction must not be touched")
	}
}

func TestRecategorizeNoUncategorizedIsNoop(t *testing.T) {
	txns := &fakeTransactionStore{txns: []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: -5000}, Category: "Groceries", Description: "Whole Foods"},
	}}
	svc := newTestService(&fakeMappingStore{}, txns)

	updated, err := svc.RecategorizeUncategorized(context.Background())
	if err != nil {
		t.Fatalf("RecategorizeUncategorized: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no updates, got %d", updated)
	}
}

func TestRecategorizeIsolatesPerRecordFailures(t *testing.T) {
	writeErr := errors.New("row locked")
	mappings := &fakeMappingStore{mappings: []core.MerchantMapping{
		{MerchantKey: "WHOLE FOODS", Category: "Groceries"},
		{MerchantKey: "PIZZA PLACE", Category: "Dining"},
	}}
	txns := &fakeTransactionStore{
		txns: []core.Transaction{
			{ID: 1, Amount: core.Money{Cents: -5000}, Category: core.CategoryUncategorized, Description: "Whole Foods"},
			{ID: 2, Amount: core.Money{Cents: -1500}, Category: core.CategoryUncategorized, Description: "Pizza Place"},
		},
		failIDs: map[int64]error{1: writeErr},
	}
	svc := newTestService(mappings, txns)

	updated, err := svc.RecategorizeUncategorized(context.Background())
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected joined write error, got %v", err)
	}
	if updated != 1 {
		t.Fatalf("failure on one record must not stop the sweep; updated = %d", updated)
	}
	if got := txns.categories[2]; got != "Dining" {
		t.Errorf("transaction 2 should still be updated, got %q", got)
	}
}

func TestTeachingEditPropagatesByFuzzyMatch(t *testing.T) {
	// Editing one transaction's category teaches the engine; other
	// uncategorized transactions with near-identical merchants follow.
	mappings := &fakeMappingStore{}
	txns := &fakeTransactionStore{txns: []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: -1200}, Category: core.CategoryUncategorized, Description: "PIZZA PALACE"},
	}}
	svc := newTestService(mappings, txns)
	ctx := context.Background()

	if err := svc.UpdateCategory(ctx, "Pizza Place", "Dining"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	updated, err := svc.RecategorizeUncategorized(ctx)
	if err != nil {
		t.Fatalf("RecategorizeUncategorized: %v", err)
	}
	// PIZZA PALACE vs PIZZA PLACE: edit distance 1, score 92.
	if updated != 1 || txns.categories[1] != "Dining" {
		t.Fatalf("expected fuzzy propagation to Dining, got updated=%d category=%q",
			updated, txns.categories[1])
	}
}
