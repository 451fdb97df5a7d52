/*
Package settings provides a typed settings service over a key-value
store.

PURPOSE:
  Global mutable configuration - currently the per-unit selling price
  used by profit analytics - lives in a settings table rather than in
  ambient global state. This service wraps the raw key-value store
  with typed getters and is injected into the components that need it.

SEE ALSO:
  - reports/analytics.go: Injected consumer of SellingPrice
  - store/sqlite: KVStore implementation
*/
package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// KeySellingPrice is the per-unit selling price used for revenue.
	KeySellingPrice = "selling_price"
)

// DefaultSellingPrice applies until a price is configured.
var DefaultSellingPrice = decimal.RequireFromString("150")

// =============================================================================
// KV STORE CONTRACT
// =============================================================================

// KVStore persists string settings. GetSetting returns ("", nil) for
// missing keys.
type KVStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value, description string) error
}

// =============================================================================
// SERVICE - Typed getters over the KV store
// =============================================================================

type Service struct {
	store KVStore
}

func NewService(store KVStore) *Service {
	return &Service{store: store}
}

// Get returns the raw value for key, or fallback when unset.
func (s *Service) Get(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// Set stores a raw value for key.
func (s *Service) Set(ctx context.Context, key, value, description string) error {
	return s.store.SetSetting(ctx, key, value, description)
}

// SellingPrice returns the configured per-unit selling price, falling
// back to DefaultSellingPrice when unset.
func (s *Service) SellingPrice(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.store.GetSetting(ctx, KeySellingPrice)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return DefaultSellingPrice, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored selling price %q: %w", raw, err)
	}
	return price, nil
}

// SetSellingPrice stores a new per-unit selling price. The price must
// be positive.
func (s *Service) SetSellingPrice(ctx context.Context, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("selling price must be positive, got %s", price)
	}
	return s.store.SetSetting(ctx, KeySellingPrice, price.String(), "Per-unit selling price for profit analytics")
}
