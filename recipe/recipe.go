/*
Package recipe resolves the active bill-of-materials for production.

PURPOSE:
  The active recipe is the set of recipe items currently flagged
  active, at most one per material (enforced by the storage layer).
  When no items are configured at all, a documented fallback recipe
  keeps production operable instead of failing.

FALLBACK RECIPE:
  Wood Splints      0.5 per unit
  Chemical Paste    0.1 per unit
  Cardboard Sheets  5   per unit
  Glue              0.05 per unit

UNIQUENESS:
  The one-active-item-per-material rule is an invariant, not an
  iteration-order accident. SaveRecipeItem fails with
  ErrDuplicateActiveRecipe rather than letting a second active row in.

SEE ALSO:
  - inventory/store.go: RecipeStore contract
  - production/engine.go: Consumes the resolved recipe
*/
package recipe

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
)

// DefaultRecipe is used when no active recipe items are configured.
var DefaultRecipe = map[string]decimal.Decimal{
	"Wood Splints":     decimal.RequireFromString("0.5"),
	"Chemical Paste":   decimal.RequireFromString("0.1"),
	"Cardboard Sheets": decimal.RequireFromString("5"),
	"Glue":             decimal.RequireFromString("0.05"),
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry resolves the active recipe from the store.
type Registry struct {
	store inventory.RecipeStore
}

func NewRegistry(store inventory.RecipeStore) *Registry {
	return &Registry{store: store}
}

// Active returns material name -> quantity per unit of output. Falls
// back to DefaultRecipe when nothing is configured.
func (r *Registry) Active(ctx context.Context) (map[string]decimal.Decimal, error) {
	items, err := r.store.ActiveRecipeItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		recipe := make(map[string]decimal.Decimal, len(DefaultRecipe))
		for name, perUnit := range DefaultRecipe {
			recipe[name] = perUnit
		}
		return recipe, nil
	}

	recipe := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		recipe[item.MaterialName] = item.QuantityPerUnit
	}
	return recipe, nil
}

// Items returns all recipe items, active first, then by material name.
func (r *Registry) Items(ctx context.Context) ([]inventory.RecipeItem, error) {
	items, err := r.store.ListRecipeItems(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsActive != items[j].IsActive {
			return items[i].IsActive
		}
		return items[i].MaterialName < items[j].MaterialName
	})
	return items, nil
}

// SetItem creates or updates the recipe item for a material. An
// existing row for the material is updated in place, so changing a
// quantity per unit does not require deleting the item first. The
// store still rejects a second active row for the same material.
func (r *Registry) SetItem(ctx context.Context, materialID string, perUnit decimal.Decimal, active bool) (*inventory.RecipeItem, error) {
	if perUnit.IsNegative() {
		return nil, inventory.ErrInvalidQuantity
	}

	items, err := r.store.ListRecipeItems(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := inventory.RecipeItem{
		ID:              uuid.NewString(),
		MaterialID:      materialID,
		QuantityPerUnit: perUnit,
		IsActive:        active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	// Reuse the material's existing row, preferring the active one.
	for _, existing := range items {
		if existing.MaterialID != materialID {
			continue
		}
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		if existing.IsActive {
			break
		}
	}
	if err := r.store.SaveRecipeItem(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a recipe item.
func (r *Registry) RemoveItem(ctx context.Context, id string) error {
	return r.store.DeleteRecipeItem(ctx, id)
}
