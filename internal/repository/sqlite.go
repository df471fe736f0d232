package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"retail-inventory/internal/domain"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteLedgerRepository implements Single Writer Principle for SQLite.
// Writes hold the mutex and run in IMMEDIATE transactions, so a read-check-write
// on a record never interleaves with another writer.
type SQLiteLedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS inventory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(store_id, product_id),
		CHECK(quantity >= 0)
	);

	CREATE TABLE IF NOT EXISTS inventory_movements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK(quantity > 0),
		CHECK(type IN ('ENTRY', 'EXIT'))
	);

	CREATE INDEX IF NOT EXISTS idx_inventory_store_id ON inventory(store_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_movements_store_id ON inventory_movements(store_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_movements_type ON inventory_movements(type);
	`

// NewSQLiteLedgerRepository opens the database file and initializes the schema
func NewSQLiteLedgerRepository(path string, logger *zap.Logger) (*SQLiteLedgerRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite ledger ready", zap.String("path", path))

	return &SQLiteLedgerRepository{db: db, logger: logger}, nil
}

func (r *SQLiteLedgerRepository) CreateInventory(ctx context.Context, record *domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory (store_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		record.StoreID, record.ProductID, record.Quantity,
		formatTime(record.CreatedAt), formatTime(record.UpdatedAt),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ErrInventoryExists
		}
		return fmt.Errorf("failed to create inventory: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inventory id: %w", err)
	}
	record.ID = id
	return nil
}

func (r *SQLiteLedgerRepository) FindInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory WHERE store_id = ? AND product_id = ?`, storeID, productID)
	return scanInventory(row)
}

func (r *SQLiteLedgerRepository) FindByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory WHERE store_id = ? ORDER BY id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.InventoryRecord, 0)
	for rows.Next() {
		record, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteLedgerRepository) ApplyMovement(ctx context.Context, movement Movement) (*domain.InventoryRecord, *domain.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	record, err := scanInventory(tx.QueryRowContext(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory WHERE store_id = ? AND product_id = ?`, movement.StoreID, movement.ProductID))
	if err != nil {
		return nil, nil, err
	}

	current := *record
	if err := record.Apply(movement.Quantity, movement.Type); err != nil {
		return &current, nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory SET quantity = ?, updated_at = ? WHERE id = ?`,
		record.Quantity, formatTime(record.UpdatedAt), record.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to update inventory: %w", err)
	}

	appended := domain.NewMovementRecord(record, movement.UserID, movement.Quantity, movement.Type)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (store_id, product_id, user_id, quantity, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		appended.StoreID, appended.ProductID, appended.UserID, appended.Quantity,
		string(appended.Type), formatTime(appended.CreatedAt),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert movement: %w", err)
	}
	if appended.ID, err = result.LastInsertId(); err != nil {
		return nil, nil, fmt.Errorf("failed to read movement id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit movement: %w", err)
	}

	r.logger.Debug("Movement committed",
		zap.Int64("store_id", record.StoreID),
		zap.Int64("product_id", record.ProductID),
		zap.String("type", string(movement.Type)),
		zap.Int64("quantity", record.Quantity),
	)

	return record, appended, nil
}

func (r *SQLiteLedgerRepository) ListMovements(ctx context.Context) ([]*domain.MovementRecord, error) {
	return r.queryMovements(ctx, `
		SELECT id, store_id, product_id, user_id, quantity, type, created_at
		FROM inventory_movements ORDER BY id`)
}

func (r *SQLiteLedgerRepository) ListMovementsByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error) {
	return r.queryMovements(ctx, `
		SELECT id, store_id, product_id, user_id, quantity, type, created_at
		FROM inventory_movements WHERE store_id = ? ORDER BY id`, storeID)
}

func (r *SQLiteLedgerRepository) CountMovementsByType(ctx context.Context) (map[domain.MovementType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM inventory_movements GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count movements: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.MovementType]int64)
	for rows.Next() {
		var movementType string
		var count int64
		if err := rows.Scan(&movementType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan movement count: %w", err)
		}
		counts[domain.MovementType(movementType)] = count
	}
	return counts, rows.Err()
}

func (r *SQLiteLedgerRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteLedgerRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteLedgerRepository) queryMovements(ctx context.Context, query string, args ...interface{}) ([]*domain.MovementRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*domain.MovementRecord, 0)
	for rows.Next() {
		var movement domain.MovementRecord
		var movementType, createdAt string
		if err := rows.Scan(&movement.ID, &movement.StoreID, &movement.ProductID, &movement.UserID,
			&movement.Quantity, &movementType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movement.Type = domain.MovementType(movementType)
		movement.CreatedAt = parseTime(createdAt)
		movements = append(movements, &movement)
	}
	return movements, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInventory(row rowScanner) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	var createdAt, updatedAt string
	err := row.Scan(&record.ID, &record.StoreID, &record.ProductID, &record.Quantity, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInventoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)
	return &record, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, value)
	return t
}
