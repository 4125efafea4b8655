package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/7174Andy/expense-tracker/internal/core"
)

// GetMapping implements merchant.MappingStore. Returns nil when no mapping
// exists for the key.
func (r *SQLiteRepository) GetMapping(ctx context.Context, merchantKey string) (*core.MerchantMapping, error) {
	var m core.MerchantMapping
	err := r.db.QueryRowContext(ctx,
		`SELECT merchant_key, category FROM merchant_categories WHERE merchant_key = ?`,
		merchantKey).Scan(&m.MerchantKey, &m.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping %q: %w", merchantKey, err)
	}
	return &m, nil
}

// SetMapping implements merchant.MappingStore. Upserts; the category of an
// existing key is overwritten.
func (r *SQLiteRepository) SetMapping(ctx context.Context, mapping core.MerchantMapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO merchant_categories (merchant_key, category)
		 VALUES (?, ?)
		 ON CONFLICT(merchant_key) DO UPDATE SET category = excluded.category`,
		mapping.MerchantKey, mapping.Category)
	if err != nil {
		return fmt.Errorf("set mapping %q: %w", mapping.MerchantKey, err)
	}
	return nil
}

// ListMappings implements merchant.MappingStore. The order is stable
// (keyed alphabetically) so fuzzy tie-breaking is deterministic.
func (r *SQLiteRepository) ListMappings(ctx context.Context) ([]core.MerchantMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT merchant_key, category FROM merchant_categories ORDER BY merchant_key`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []core.MerchantMapping
	for rows.Next() {
		var m core.MerchantMapping
		if err := rows.Scan(&m.MerchantKey, &m.Category); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}
