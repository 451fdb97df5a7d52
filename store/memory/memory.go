/*
Package memory provides an in-memory implementation of the inventory
storage interfaces.

PURPOSE:
  Fast, dependency-free store for unit tests and demos. Transactions
  are implemented by snapshotting all maps before fn runs and
  restoring the snapshot when fn returns an error. Good enough for a
  single-process test harness; the SQLite store is the real thing.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - store/sqlite: Production implementation
*/
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
)

// Store is an in-memory implementation of inventory.TxStore.
type Store struct {
	mu          sync.RWMutex
	materials   map[string]inventory.Material
	entries     []inventory.LedgerEntry
	productions map[string]inventory.ProductionRecord
	recipeItems map[string]inventory.RecipeItem
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		materials:   make(map[string]inventory.Material),
		productions: make(map[string]inventory.ProductionRecord),
		recipeItems: make(map[string]inventory.RecipeItem),
	}
}

// =============================================================================
// MATERIAL STORE
// =============================================================================

func (s *Store) SaveMaterial(ctx context.Context, m inventory.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
	return nil
}

func (s *Store) GetMaterial(ctx context.Context, id string) (*inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) GetMaterialByName(ctx context.Context, name string) (*inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.materials {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *Store) ListMaterials(ctx context.Context) ([]inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	materials := make([]inventory.Material, 0, len(s.materials))
	for _, m := range s.materials {
		materials = append(materials, m)
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].Name < materials[j].Name
	})
	return materials, nil
}

func (s *Store) AdjustQuantity(ctx context.Context, materialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.materials[materialID]
	if !ok {
		return decimal.Zero, inventory.ErrMaterialNotFound
	}

	newQuantity := m.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("quantity for material %s would go negative (%s)", materialID, newQuantity)
	}

	m.Quantity = newQuantity
	m.UpdatedAt = time.Now().UTC()
	s.materials[materialID] = m
	return newQuantity, nil
}

// =============================================================================
// LEDGER STORE (append-only slice)
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e inventory.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *Store) EntriesByMaterial(ctx context.Context, materialID string, kind inventory.EntryKind, from, to time.Time) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []inventory.LedgerEntry
	for _, e := range s.entries {
		if e.MaterialID != materialID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.CreatedAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) EntriesByProduction(ctx context.Context, productionID string, kind inventory.EntryKind) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []inventory.LedgerEntry
	for _, e := range s.entries {
		if e.ProductionID != productionID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) RecentEntries(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Entries are appended in order, so walk backwards.
	var out []inventory.LedgerEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// =============================================================================
// PRODUCTION STORE
// =============================================================================

func (s *Store) SaveProduction(ctx context.Context, rec inventory.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productions[rec.ID] = rec
	return nil
}

func (s *Store) GetProduction(ctx context.Context, id string) (*inventory.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.productions[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) ListProductions(ctx context.Context, from, to time.Time) ([]inventory.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []inventory.ProductionRecord
	for _, rec := range s.productions {
		if rec.IsDeleted {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) MarkProductionDeleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.productions[id]
	if !ok {
		return inventory.ErrRecordNotFound
	}
	rec.IsDeleted = true
	s.productions[id] = rec
	return nil
}

// =============================================================================
// RECIPE STORE
// =============================================================================

func (s *Store) SaveRecipeItem(ctx context.Context, item inventory.RecipeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.IsActive {
		for _, other := range s.recipeItems {
			if other.MaterialID == item.MaterialID && other.IsActive && other.ID != item.ID {
				return inventory.ErrDuplicateActiveRecipe
			}
		}
	}
	s.recipeItems[item.ID] = item
	return nil
}

func (s *Store) ListRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRecipeItems(false), nil
}

func (s *Store) ActiveRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectRecipeItems(true), nil
}

func (s *Store) collectRecipeItems(activeOnly bool) []inventory.RecipeItem {
	var items []inventory.RecipeItem
	for _, item := range s.recipeItems {
		if activeOnly && !item.IsActive {
			continue
		}
		if m, ok := s.materials[item.MaterialID]; ok {
			item.MaterialName = m.Name
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MaterialName < items[j].MaterialName
	})
	return items
}

func (s *Store) DeleteRecipeItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recipeItems, id)
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx runs fn against an unlocked view of the store. All maps are
// snapshotted first; on error the snapshot is restored, so a failed fn
// leaves no partial writes behind.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&txView{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	materials   map[string]inventory.Material
	entries     []inventory.LedgerEntry
	productions map[string]inventory.ProductionRecord
	recipeItems map[string]inventory.RecipeItem
}

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		materials:   make(map[string]inventory.Material, len(s.materials)),
		entries:     make([]inventory.LedgerEntry, len(s.entries)),
		productions: make(map[string]inventory.ProductionRecord, len(s.productions)),
		recipeItems: make(map[string]inventory.RecipeItem, len(s.recipeItems)),
	}
	for k, v := range s.materials {
		snap.materials[k] = v
	}
	copy(snap.entries, s.entries)
	for k, v := range s.productions {
		snap.productions[k] = v
	}
	for k, v := range s.recipeItems {
		snap.recipeItems[k] = v
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.materials = snap.materials
	s.entries = snap.entries
	s.productions = snap.productions
	s.recipeItems = snap.recipeItems
}

// txView bypasses the store's mutex. WithTx already holds the write
// lock, so re-locking in the regular methods would deadlock.
type txView struct {
	store *Store
}

func (tv *txView) SaveMaterial(ctx context.Context, m inventory.Material) error {
	tv.store.materials[m.ID] = m
	return nil
}

func (tv *txView) GetMaterial(ctx context.Context, id string) (*inventory.Material, error) {
	m, ok := tv.store.materials[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (tv *txView) GetMaterialByName(ctx context.Context, name string) (*inventory.Material, error) {
	for _, m := range tv.store.materials {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, nil
}

func (tv *txView) ListMaterials(ctx context.Context) ([]inventory.Material, error) {
	materials := make([]inventory.Material, 0, len(tv.store.materials))
	for _, m := range tv.store.materials {
		materials = append(materials, m)
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].Name < materials[j].Name
	})
	return materials, nil
}

func (tv *txView) AdjustQuantity(ctx context.Context, materialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	m, ok := tv.store.materials[materialID]
	if !ok {
		return decimal.Zero, inventory.ErrMaterialNotFound
	}
	newQuantity := m.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("quantity for material %s would go negative (%s)", materialID, newQuantity)
	}
	m.Quantity = newQuantity
	m.UpdatedAt = time.Now().UTC()
	tv.store.materials[materialID] = m
	return newQuantity, nil
}

func (tv *txView) AppendEntry(ctx context.Context, e inventory.LedgerEntry) error {
	tv.store.entries = append(tv.store.entries, e)
	return nil
}

func (tv *txView) EntriesByMaterial(ctx context.Context, materialID string, kind inventory.EntryKind, from, to time.Time) ([]inventory.LedgerEntry, error) {
	var out []inventory.LedgerEntry
	for _, e := range tv.store.entries {
		if e.MaterialID != materialID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.CreatedAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (tv *txView) EntriesByProduction(ctx context.Context, productionID string, kind inventory.EntryKind) ([]inventory.LedgerEntry, error) {
	var out []inventory.LedgerEntry
	for _, e := range tv.store.entries {
		if e.ProductionID != productionID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (tv *txView) RecentEntries(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	var out []inventory.LedgerEntry
	for i := len(tv.store.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, tv.store.entries[i])
	}
	return out, nil
}

func (tv *txView) SaveProduction(ctx context.Context, rec inventory.ProductionRecord) error {
	tv.store.productions[rec.ID] = rec
	return nil
}

func (tv *txView) GetProduction(ctx context.Context, id string) (*inventory.ProductionRecord, error) {
	rec, ok := tv.store.productions[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (tv *txView) ListProductions(ctx context.Context, from, to time.Time) ([]inventory.ProductionRecord, error) {
	var out []inventory.ProductionRecord
	for _, rec := range tv.store.productions {
		if rec.IsDeleted {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (tv *txView) MarkProductionDeleted(ctx context.Context, id string) error {
	rec, ok := tv.store.productions[id]
	if !ok {
		return inventory.ErrRecordNotFound
	}
	rec.IsDeleted = true
	tv.store.productions[id] = rec
	return nil
}

func (tv *txView) SaveRecipeItem(ctx context.Context, item inventory.RecipeItem) error {
	if item.IsActive {
		for _, other := range tv.store.recipeItems {
			if other.MaterialID == item.MaterialID && other.IsActive && other.ID != item.ID {
				return inventory.ErrDuplicateActiveRecipe
			}
		}
	}
	tv.store.recipeItems[item.ID] = item
	return nil
}

func (tv *txView) ListRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	return tv.store.collectRecipeItems(false), nil
}

func (tv *txView) ActiveRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	return tv.store.collectRecipeItems(true), nil
}

func (tv *txView) DeleteRecipeItem(ctx context.Context, id string) error {
	delete(tv.store.recipeItems, id)
	return nil
}
