package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-inventory/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS inventory (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (store_id, product_id)
	);

	CREATE TABLE IF NOT EXISTS inventory_movements (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		type TEXT NOT NULL CHECK (type IN ('ENTRY', 'EXIT')),
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_inventory_store_id ON inventory(store_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_movements_store_id ON inventory_movements(store_id);
	`

// PostgresLedgerRepository persists the ledger in PostgreSQL.
// Movements lock the inventory row with SELECT ... FOR UPDATE before the read-check-write.
type PostgresLedgerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLedgerRepository connects the pool, waits for the database and initializes the schema
func NewPostgresLedgerRepository(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresLedgerRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := waitForPostgres(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresLedgerRepository{db: pool, logger: logger}, nil
}

func waitForPostgres(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	const attempts = 10
	for i := 0; i < attempts; i++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("Connected to ledger database")
			return nil
		}
		logger.Warn("Waiting for database...", zap.Int("attempt", i+1), zap.Int("max_attempts", attempts))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts", attempts)
}

func (r *PostgresLedgerRepository) CreateInventory(ctx context.Context, record *domain.InventoryRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory (store_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		record.StoreID, record.ProductID, record.Quantity, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrInventoryExists
		}
		return fmt.Errorf("failed to create inventory: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) FindInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error) {
	return scanPgInventory(r.db.QueryRow(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory WHERE store_id = $1 AND product_id = $2`, storeID, productID))
}

func (r *PostgresLedgerRepository) FindByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory WHERE store_id = $1 ORDER BY id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.InventoryRecord, 0)
	for rows.Next() {
		record, err := scanPgInventory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *PostgresLedgerRepository) ApplyMovement(ctx context.Context, movement Movement) (*domain.InventoryRecord, *domain.MovementRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := scanPgInventory(tx.QueryRow(ctx, `
		SELECT id, store_id, product_id, quantity, created_at, updated_at
		FROM inventory
		WHERE store_id = $1 AND product_id = $2
		FOR UPDATE`, movement.StoreID, movement.ProductID))
	if err != nil {
		return nil, nil, err
	}

	current := *record
	if err := record.Apply(movement.Quantity, movement.Type); err != nil {
		return &current, nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE inventory SET quantity = $1, updated_at = $2 WHERE id = $3`,
		record.Quantity, record.UpdatedAt, record.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to update inventory: %w", err)
	}

	appended := domain.NewMovementRecord(record, movement.UserID, movement.Quantity, movement.Type)
	if err := tx.QueryRow(ctx, `
		INSERT INTO inventory_movements (store_id, product_id, user_id, quantity, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		appended.StoreID, appended.ProductID, appended.UserID, appended.Quantity,
		string(appended.Type), appended.CreatedAt,
	).Scan(&appended.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to insert movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit movement: %w", err)
	}

	return record, appended, nil
}

func (r *PostgresLedgerRepository) ListMovements(ctx context.Context) ([]*domain.MovementRecord, error) {
	return r.queryMovements(ctx, `
		SELECT id, store_id, product_id, user_id, quantity, type, created_at
		FROM inventory_movements ORDER BY id`)
}

func (r *PostgresLedgerRepository) ListMovementsByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error) {
	return r.queryMovements(ctx, `
		SELECT id, store_id, product_id, user_id, quantity, type, created_at
		FROM inventory_movements WHERE store_id = $1 ORDER BY id`, storeID)
}

func (r *PostgresLedgerRepository) CountMovementsByType(ctx context.Context) (map[domain.MovementType]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM inventory_movements GROUP BY type`)
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

func (r *PostgresLedgerRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresLedgerRepository) Close() error {
	r.db.Close()
	return nil
}

func (r *PostgresLedgerRepository) queryMovements(ctx context.Context, query string, args ...any) ([]*domain.MovementRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*domain.MovementRecord, 0)
	for rows.Next() {
		var movement domain.MovementRecord
		var movementType string
		if err := rows.Scan(&movement.ID, &movement.StoreID, &movement.ProductID, &movement.UserID,
			&movement.Quantity, &movementType, &movement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movement.Type = domain.MovementType(movementType)
		movements = append(movements, &movement)
	}
	return movements, rows.Err()
}

func scanPgInventory(row pgx.Row) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := row.Scan(&record.ID, &record.StoreID, &record.ProductID, &record.Quantity, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInventoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}
	return &record, nil
}
