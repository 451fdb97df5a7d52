/*
Package sqlite provides the SQLite-backed implementation of the
storage interfaces.

PURPOSE:
  Implements all persistence interfaces (inventory.TxStore,
  settings.KVStore, payroll.Store) using SQLite. In production the
  same patterns apply to PostgreSQL - only minor dialect differences.

APPEND-ONLY ENFORCEMENT:
  The stock_ledger table is append-only:
  - No UPDATE statements on stock_ledger
  - No DELETE statements on stock_ledger
  - Corrections via adjustment entries only

KEY TABLES:
  materials:          Raw materials; quantity is a ledger projection
  stock_ledger:       Immutable log of every quantity change
  production_records: Production runs (soft delete only)
  recipe_items:       Bill-of-materials rows
  settings:           Key-value configuration
  employees, attendance, salaries: Payroll data

INDEXES:
  - idx_ledger_material_date: consumption queries (hot path)
  - idx_ledger_production:    cost and undo lookups
  - idx_recipe_one_active:    enforces one active item per material

CONCURRENCY:
  A sync.RWMutex serializes writers; production/undo/restock run as
  one SQL transaction under the write lock, so two operations cannot
  both pass an availability check against the same stock.

WAL MODE:
  SQLite is opened with WAL for better read concurrency and crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/factory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Materials (quantity is a projection of stock_ledger)
	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Stock ledger (append-only)
	CREATE TABLE IF NOT EXISTS stock_ledger (
		id TEXT PRIMARY KEY,
		material_id TEXT NOT NULL REFERENCES materials(id),
		kind TEXT NOT NULL CHECK (kind IN ('restock', 'production', 'adjustment')),
		quantity_change TEXT NOT NULL,
		quantity_before TEXT NOT NULL,
		quantity_after TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		production_id TEXT REFERENCES production_records(id),
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_material_date
		ON stock_ledger(material_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_production
		ON stock_ledger(production_id, kind) WHERE production_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_ledger_kind
		ON stock_ledger(kind);

	-- Production records (soft delete only)
	CREATE TABLE IF NOT EXISTS production_records (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		notes TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_production_date
		ON production_records(date);

	-- Recipe items
	CREATE TABLE IF NOT EXISTS recipe_items (
		id TEXT PRIMARY KEY,
		material_id TEXT NOT NULL REFERENCES materials(id),
		quantity_per_unit TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: one active recipe item per material. Duplicate active
	-- rows would make recipe resolution depend on iteration order.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_recipe_one_active
		ON recipe_items(material_id) WHERE is_active = 1;

	-- Settings (key-value)
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		description TEXT,
		updated_at TEXT NOT NULL
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		employee_code TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		department TEXT,
		position TEXT,
		hire_date TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		status TEXT NOT NULL,
		address TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Attendance (one row per employee per day)
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		clock_in TEXT,
		clock_out TEXT,
		status TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	-- Salaries (one row per employee per month)
	CREATE TABLE IF NOT EXISTS salaries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		month TEXT NOT NULL,
		gross_salary TEXT NOT NULL,
		bonus TEXT NOT NULL,
		deductions TEXT NOT NULL,
		tax TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		payment_date TEXT,
		payment_method TEXT,
		amount_paid TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, month)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// MATERIAL STORE (inventory.MaterialStore interface)
// =============================================================================

// SaveMaterial inserts or updates a material.
func (s *Store) SaveMaterial(ctx context.Context, m inventory.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveMaterial(ctx, s.db, m)
}

func saveMaterial(ctx context.Context, db dbtx, m inventory.Material) error {
	query := `
		INSERT INTO materials (id, name, quantity, unit, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			unit_price = excluded.unit_price,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		m.ID, m.Name, m.Quantity.String(), m.Unit, m.UnitPrice.String(),
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetMaterial retrieves a material by ID. Returns (nil, nil) if missing.
func (s *Store) GetMaterial(ctx context.Context, id string) (*inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getMaterial(ctx, s.db, "id", id)
}

// GetMaterialByName retrieves a material by its unique name.
func (s *Store) GetMaterialByName(ctx context.Context, name string) (*inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getMaterial(ctx, s.db, "name", name)
}

func getMaterial(ctx context.Context, db dbtx, column, value string) (*inventory.Material, error) {
	query := fmt.Sprintf(
		"SELECT id, name, quantity, unit, unit_price, created_at, updated_at FROM materials WHERE %s = ?",
		column,
	)

	var (
		m                    inventory.Material
		quantity, unitPrice  string
		createdAt, updatedAt string
	)
	err := db.QueryRowContext(ctx, query, value).Scan(
		&m.ID, &m.Name, &quantity, &m.Unit, &unitPrice, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Quantity = mustDecimal(quantity)
	m.UnitPrice = mustDecimal(unitPrice)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &m, nil
}

// ListMaterials returns all materials ordered by name.
func (s *Store) ListMaterials(ctx context.Context) ([]inventory.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMaterials(ctx, s.db)
}

func listMaterials(ctx context.Context, db dbtx) ([]inventory.Material, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, quantity, unit, unit_price, created_at, updated_at FROM materials ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []inventory.Material
	for rows.Next() {
		var (
			m                    inventory.Material
			quantity, unitPrice  string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&m.ID, &m.Name, &quantity, &m.Unit, &unitPrice, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		m.Quantity = mustDecimal(quantity)
		m.UnitPrice = mustDecimal(unitPrice)
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// AdjustQuantity applies a signed delta to the quantity projection and
// returns the new quantity. The quantity must not go negative.
func (s *Store) AdjustQuantity(ctx context.Context, materialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adjustQuantity(ctx, s.db, materialID, delta)
}

func adjustQuantity(ctx context.Context, db dbtx, materialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	material, err := getMaterial(ctx, db, "id", materialID)
	if err != nil {
		return decimal.Zero, err
	}
	if material == nil {
		return decimal.Zero, inventory.ErrMaterialNotFound
	}

	newQuantity := material.Quantity.Add(delta)
	if newQuantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("quantity for material %s would go negative (%s)", materialID, newQuantity)
	}

	_, err = db.ExecContext(ctx,
		"UPDATE materials SET quantity = ?, updated_at = ? WHERE id = ?",
		newQuantity.String(), time.Now().UTC().Format(time.RFC3339), materialID,
	)
	if err != nil {
		return decimal.Zero, err
	}
	return newQuantity, nil
}

// =============================================================================
// LEDGER STORE (inventory.LedgerStore interface, append-only)
// =============================================================================

// AppendEntry adds an entry to the stock ledger.
func (s *Store) AppendEntry(ctx context.Context, e inventory.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, db dbtx, e inventory.LedgerEntry) error {
	query := `
		INSERT INTO stock_ledger
		(id, material_id, kind, quantity_change, quantity_before, quantity_after,
		 unit_price, production_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		e.ID,
		e.MaterialID,
		string(e.Kind),
		e.QuantityChange.String(),
		e.QuantityBefore.String(),
		e.QuantityAfter.String(),
		e.UnitPrice.String(),
		nullString(e.ProductionID),
		e.Notes,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// EntriesByMaterial returns a material's entries, optionally filtered
// by kind and bounded by [from, to] on creation time.
func (s *Store) EntriesByMaterial(ctx context.Context, materialID string, kind inventory.EntryKind, from, to time.Time) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesByMaterial(ctx, s.db, materialID, kind, from, to)
}

func entriesByMaterial(ctx context.Context, db dbtx, materialID string, kind inventory.EntryKind, from, to time.Time) ([]inventory.LedgerEntry, error) {
	query := `
		SELECT id, material_id, kind, quantity_change, quantity_before, quantity_after,
		       unit_price, production_id, notes, created_at
		FROM stock_ledger
		WHERE material_id = ?
	`
	args := []any{materialID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	if !from.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, to.Format(time.RFC3339))
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	return queryEntries(ctx, db, query, args...)
}

// EntriesByProduction returns the entries tied to a production record.
func (s *Store) EntriesByProduction(ctx context.Context, productionID string, kind inventory.EntryKind) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entriesByProduction(ctx, s.db, productionID, kind)
}

func entriesByProduction(ctx context.Context, db dbtx, productionID string, kind inventory.EntryKind) ([]inventory.LedgerEntry, error) {
	query := `
		SELECT id, material_id, kind, quantity_change, quantity_before, quantity_after,
		       unit_price, production_id, notes, created_at
		FROM stock_ledger
		WHERE production_id = ?
	`
	args := []any{productionID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	return queryEntries(ctx, db, query, args...)
}

// RecentEntries returns the newest entries across all materials.
func (s *Store) RecentEntries(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recentEntries(ctx, s.db, limit)
}

func recentEntries(ctx context.Context, db dbtx, limit int) ([]inventory.LedgerEntry, error) {
	query := `
		SELECT id, material_id, kind, quantity_change, quantity_before, quantity_after,
		       unit_price, production_id, notes, created_at
		FROM stock_ledger
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	return queryEntries(ctx, db, query, limit)
}

func queryEntries(ctx context.Context, db dbtx, query string, args ...any) ([]inventory.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []inventory.LedgerEntry
	for rows.Next() {
		var (
			e                     inventory.LedgerEntry
			kind                  string
			change, before, after string
			unitPrice             string
			productionID, notes   sql.NullString
			createdAt             string
		)
		if err := rows.Scan(&e.ID, &e.MaterialID, &kind, &change, &before, &after,
			&unitPrice, &productionID, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = inventory.EntryKind(kind)
		e.QuantityChange = mustDecimal(change)
		e.QuantityBefore = mustDecimal(before)
		e.QuantityAfter = mustDecimal(after)
		e.UnitPrice = mustDecimal(unitPrice)
		e.ProductionID = productionID.String
		e.Notes = notes.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// PRODUCTION STORE (inventory.ProductionStore interface)
// =============================================================================

// SaveProduction inserts a production record.
func (s *Store) SaveProduction(ctx context.Context, rec inventory.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProduction(ctx, s.db, rec)
}

func saveProduction(ctx context.Context, db dbtx, rec inventory.ProductionRecord) error {
	query := `
		INSERT INTO production_records (id, date, quantity, notes, is_deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		rec.ID, rec.Date.Format(time.RFC3339), rec.Quantity, rec.Notes,
		boolToInt(rec.IsDeleted), rec.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// GetProduction retrieves a record by ID, including soft-deleted ones.
func (s *Store) GetProduction(ctx context.Context, id string) (*inventory.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProduction(ctx, s.db, id)
}

func getProduction(ctx context.Context, db dbtx, id string) (*inventory.ProductionRecord, error) {
	var (
		rec             inventory.ProductionRecord
		date, createdAt string
		isDeleted       int
		notes           sql.NullString
	)
	err := db.QueryRowContext(ctx,
		"SELECT id, date, quantity, notes, is_deleted, created_at FROM production_records WHERE id = ?",
		id,
	).Scan(&rec.ID, &date, &rec.Quantity, &notes, &isDeleted, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Date, _ = time.Parse(time.RFC3339, date)
	rec.Notes = notes.String
	rec.IsDeleted = isDeleted != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// ListProductions returns non-deleted records with Date in [from, to],
// newest first.
func (s *Store) ListProductions(ctx context.Context, from, to time.Time) ([]inventory.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProductions(ctx, s.db, from, to)
}

func listProductions(ctx context.Context, db dbtx, from, to time.Time) ([]inventory.ProductionRecord, error) {
	query := "SELECT id, date, quantity, notes, is_deleted, created_at FROM production_records WHERE is_deleted = 0"
	var args []any
	if !from.IsZero() {
		query += " AND date >= ?"
		args = append(args, from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, to.Format(time.RFC3339))
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []inventory.ProductionRecord
	for rows.Next() {
		var (
			rec             inventory.ProductionRecord
			date, createdAt string
			isDeleted       int
			notes           sql.NullString
		)
		if err := rows.Scan(&rec.ID, &date, &rec.Quantity, &notes, &isDeleted, &createdAt); err != nil {
			return nil, err
		}
		rec.Date, _ = time.Parse(time.RFC3339, date)
		rec.Notes = notes.String
		rec.IsDeleted = isDeleted != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkProductionDeleted soft-deletes a record. The row remains for the
// audit trail.
func (s *Store) MarkProductionDeleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markProductionDeleted(ctx, s.db, id)
}

func markProductionDeleted(ctx context.Context, db dbtx, id string) error {
	res, err := db.ExecContext(ctx, "UPDATE production_records SET is_deleted = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrRecordNotFound
	}
	return nil
}

// =============================================================================
// RECIPE STORE (inventory.RecipeStore interface)
// =============================================================================

// SaveRecipeItem inserts or updates a recipe item. A second active
// item for the same material fails with ErrDuplicateActiveRecipe.
func (s *Store) SaveRecipeItem(ctx context.Context, item inventory.RecipeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRecipeItem(ctx, s.db, item)
}

func saveRecipeItem(ctx context.Context, db dbtx, item inventory.RecipeItem) error {
	query := `
		INSERT INTO recipe_items (id, material_id, quantity_per_unit, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quantity_per_unit = excluded.quantity_per_unit,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		item.ID, item.MaterialID, item.QuantityPerUnit.String(),
		boolToInt(item.IsActive),
		item.CreatedAt.Format(time.RFC3339), item.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateActiveRecipe
		}
		return err
	}
	return nil
}

// ListRecipeItems returns all recipe items with material names.
func (s *Store) ListRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryRecipeItems(ctx, s.db, "")
}

// ActiveRecipeItems returns only active items.
func (s *Store) ActiveRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryRecipeItems(ctx, s.db, "WHERE r.is_active = 1")
}

func queryRecipeItems(ctx context.Context, db dbtx, where string) ([]inventory.RecipeItem, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.material_id, m.name, r.quantity_per_unit, r.is_active, r.created_at, r.updated_at
		FROM recipe_items r
		JOIN materials m ON m.id = r.material_id
		%s
		ORDER BY m.name
	`, where)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []inventory.RecipeItem
	for rows.Next() {
		var (
			item                 inventory.RecipeItem
			perUnit              string
			isActive             int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&item.ID, &item.MaterialID, &item.MaterialName,
			&perUnit, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		item.QuantityPerUnit = mustDecimal(perUnit)
		item.IsActive = isActive != 0
		item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteRecipeItem removes a recipe item. Recipe rows are
// configuration, not audit data, so hard delete is fine here.
func (s *Store) DeleteRecipeItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRecipeItem(ctx, s.db, id)
}

func deleteRecipeItem(ctx context.Context, db dbtx, id string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM recipe_items WHERE id = ?", id)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (inventory.TxStore interface)
// =============================================================================

// WithTx executes fn against a Store view whose writes commit together
// or roll back together. The write lock is held for the duration, so
// concurrent productions are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the in-transaction view. It reuses the unexported query
// helpers with the *sql.Tx and takes no locks (WithTx already holds
// the write lock).
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveMaterial(ctx context.Context, m inventory.Material) error {
	return saveMaterial(ctx, ts.tx, m)
}

func (ts *txStore) GetMaterial(ctx context.Context, id string) (*inventory.Material, error) {
	return getMaterial(ctx, ts.tx, "id", id)
}

func (ts *txStore) GetMaterialByName(ctx context.Context, name string) (*inventory.Material, error) {
	return getMaterial(ctx, ts.tx, "name", name)
}

func (ts *txStore) ListMaterials(ctx context.Context) ([]inventory.Material, error) {
	return listMaterials(ctx, ts.tx)
}

func (ts *txStore) AdjustQuantity(ctx context.Context, materialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	return adjustQuantity(ctx, ts.tx, materialID, delta)
}

func (ts *txStore) AppendEntry(ctx context.Context, e inventory.LedgerEntry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) EntriesByMaterial(ctx context.Context, materialID string, kind inventory.EntryKind, from, to time.Time) ([]inventory.LedgerEntry, error) {
	return entriesByMaterial(ctx, ts.tx, materialID, kind, from, to)
}

func (ts *txStore) EntriesByProduction(ctx context.Context, productionID string, kind inventory.EntryKind) ([]inventory.LedgerEntry, error) {
	return entriesByProduction(ctx, ts.tx, productionID, kind)
}

func (ts *txStore) RecentEntries(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	return recentEntries(ctx, ts.tx, limit)
}

func (ts *txStore) SaveProduction(ctx context.Context, rec inventory.ProductionRecord) error {
	return saveProduction(ctx, ts.tx, rec)
}

func (ts *txStore) GetProduction(ctx context.Context, id string) (*inventory.ProductionRecord, error) {
	return getProduction(ctx, ts.tx, id)
}

func (ts *txStore) ListProductions(ctx context.Context, from, to time.Time) ([]inventory.ProductionRecord, error) {
	return listProductions(ctx, ts.tx, from, to)
}

func (ts *txStore) MarkProductionDeleted(ctx context.Context, id string) error {
	return markProductionDeleted(ctx, ts.tx, id)
}

func (ts *txStore) SaveRecipeItem(ctx context.Context, item inventory.RecipeItem) error {
	return saveRecipeItem(ctx, ts.tx, item)
}

func (ts *txStore) ListRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	return queryRecipeItems(ctx, ts.tx, "")
}

func (ts *txStore) ActiveRecipeItems(ctx context.Context) ([]inventory.RecipeItem, error) {
	return queryRecipeItems(ctx, ts.tx, "WHERE r.is_active = 1")
}

func (ts *txStore) DeleteRecipeItem(ctx context.Context, id string) error {
	return deleteRecipeItem(ctx, ts.tx, id)
}

// =============================================================================
// SETTINGS STORE (settings.KVStore interface)
// =============================================================================

// GetSetting returns the value for key, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting inserts or updates a setting.
func (s *Store) SetSetting(ctx context.Context, key, value, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = excluded.description,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, description,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// EMPLOYEE STORE (payroll.Store interface)
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(id, employee_code, first_name, last_name, email, phone, department, position,
		 hire_date, base_salary, employment_type, status, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_code = excluded.employee_code,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone = excluded.phone,
			department = excluded.department,
			position = excluded.position,
			hire_date = excluded.hire_date,
			base_salary = excluded.base_salary,
			employment_type = excluded.employment_type,
			status = excluded.status,
			address = excluded.address,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.EmployeeID, e.FirstName, e.LastName, e.Email, e.Phone,
		e.Department, e.Position, e.HireDate.Format("2006-01-02"),
		e.BaseSalary.String(), string(e.EmploymentType), string(e.Status), e.Address,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID. Returns (nil, nil) if missing.
func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees, err := s.queryEmployees(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, nil
	}
	return &employees[0], nil
}

// ListEmployees returns employees, optionally filtered by status.
func (s *Store) ListEmployees(ctx context.Context, status payroll.EmployeeStatus) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return s.queryEmployees(ctx, "")
	}
	return s.queryEmployees(ctx, "WHERE status = ?", string(status))
}

func (s *Store) queryEmployees(ctx context.Context, where string, args ...any) ([]payroll.Employee, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_code, first_name, last_name, email, phone, department, position,
		       hire_date, base_salary, employment_type, status, address, created_at, updated_at
		FROM employees %s ORDER BY employee_code
	`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var (
			e                             payroll.Employee
			email, phone, dept, pos, addr sql.NullString
			hireDate, baseSalary          string
			empType, status               string
			createdAt, updatedAt          string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.FirstName, &e.LastName,
			&email, &phone, &dept, &pos, &hireDate, &baseSalary,
			&empType, &status, &addr, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Email = email.String
		e.Phone = phone.String
		e.Department = dept.String
		e.Position = pos.String
		e.Address = addr.String
		e.HireDate, _ = time.Parse("2006-01-02", hireDate)
		e.BaseSalary = mustDecimal(baseSalary)
		e.EmploymentType = payroll.EmploymentType(empType)
		e.Status = payroll.EmployeeStatus(status)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee and, via cascade, their
// attendance and salary rows.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

// SaveAttendance inserts or updates the row for (employee, date).
func (s *Store) SaveAttendance(ctx context.Context, a payroll.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance
		(id, employee_id, date, clock_in, clock_out, status, hours_worked, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			clock_in = excluded.clock_in,
			clock_out = excluded.clock_out,
			status = excluded.status,
			hours_worked = excluded.hours_worked,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.Date.Format("2006-01-02"),
		nullTime(a.ClockIn), nullTime(a.ClockOut),
		string(a.Status), a.HoursWorked.String(), a.Notes,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetAttendance retrieves the row for (employee, date).
func (s *Store) GetAttendance(ctx context.Context, employeeID string, date time.Time) (*payroll.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryAttendance(ctx,
		"WHERE employee_id = ? AND date = ?", employeeID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListAttendance returns an employee's rows with date in [from, to].
func (s *Store) ListAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]payroll.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := "WHERE employee_id = ?"
	args := []any{employeeID}
	if !from.IsZero() {
		where += " AND date >= ?"
		args = append(args, from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		where += " AND date <= ?"
		args = append(args, to.Format("2006-01-02"))
	}
	return s.queryAttendance(ctx, where, args...)
}

func (s *Store) queryAttendance(ctx context.Context, where string, args ...any) ([]payroll.Attendance, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_id, date, clock_in, clock_out, status, hours_worked, notes, created_at, updated_at
		FROM attendance %s ORDER BY date ASC
	`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.Attendance
	for rows.Next() {
		var (
			a                    payroll.Attendance
			date, hours          string
			clockIn, clockOut    sql.NullString
			status               string
			notes                sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &date, &clockIn, &clockOut,
			&status, &hours, &notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.Date, _ = time.Parse("2006-01-02", date)
		a.ClockIn = parseNullTime(clockIn)
		a.ClockOut = parseNullTime(clockOut)
		a.Status = payroll.AttendanceStatus(status)
		a.HoursWorked = mustDecimal(hours)
		a.Notes = notes.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		records = append(records, a)
	}
	return records, rows.Err()
}

// =============================================================================
// SALARY STORE
// =============================================================================

// SaveSalary inserts or updates the row for (employee, month).
func (s *Store) SaveSalary(ctx context.Context, sal payroll.Salary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO salaries
		(id, employee_id, month, gross_salary, bonus, deductions, tax, net_salary,
		 payment_status, payment_date, payment_method, amount_paid, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			gross_salary = excluded.gross_salary,
			bonus = excluded.bonus,
			deductions = excluded.deductions,
			tax = excluded.tax,
			net_salary = excluded.net_salary,
			payment_status = excluded.payment_status,
			payment_date = excluded.payment_date,
			payment_method = excluded.payment_method,
			amount_paid = excluded.amount_paid,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		sal.ID, sal.EmployeeID, sal.Month.Format("2006-01-02"),
		sal.GrossSalary.String(), sal.Bonus.String(), sal.Deductions.String(),
		sal.Tax.String(), sal.NetSalary.String(), string(sal.PaymentStatus),
		nullTime(sal.PaymentDate), sal.PaymentMethod, sal.AmountPaid.String(), sal.Notes,
		sal.CreatedAt.Format(time.RFC3339), sal.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetSalary retrieves the row for (employee, month).
func (s *Store) GetSalary(ctx context.Context, employeeID string, month time.Time) (*payroll.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.querySalaries(ctx,
		"WHERE employee_id = ? AND month = ?", employeeID, month.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListSalaries returns all salary rows for a month.
func (s *Store) ListSalaries(ctx context.Context, month time.Time) ([]payroll.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySalaries(ctx, "WHERE month = ?", month.Format("2006-01-02"))
}

func (s *Store) querySalaries(ctx context.Context, where string, args ...any) ([]payroll.Salary, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_id, month, gross_salary, bonus, deductions, tax, net_salary,
		       payment_status, payment_date, payment_method, amount_paid, notes, created_at, updated_at
		FROM salaries %s ORDER BY employee_id
	`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.Salary
	for rows.Next() {
		var (
			sal                                payroll.Salary
			month                              string
			gross, bonus, deductions, tax, net string
			status, amountPaid                 string
			paymentDate                        sql.NullString
			method, notes                      sql.NullString
			createdAt, updatedAt               string
		)
		if err := rows.Scan(&sal.ID, &sal.EmployeeID, &month, &gross, &bonus,
			&deductions, &tax, &net, &status, &paymentDate, &method,
			&amountPaid, &notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		sal.Month, _ = time.Parse("2006-01-02", month)
		sal.GrossSalary = mustDecimal(gross)
		sal.Bonus = mustDecimal(bonus)
		sal.Deductions = mustDecimal(deductions)
		sal.Tax = mustDecimal(tax)
		sal.NetSalary = mustDecimal(net)
		sal.PaymentStatus = payroll.PaymentStatus(status)
		sal.PaymentDate = parseNullTime(paymentDate)
		sal.PaymentMethod = method.String
		sal.AmountPaid = mustDecimal(amountPaid)
		sal.Notes = notes.String
		sal.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sal.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		records = append(records, sal)
	}
	return records, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
