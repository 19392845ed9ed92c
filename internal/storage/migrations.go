package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// MigrationManager handles database schema migrations
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// GetMigrations returns all available migrations in order
func (m *MigrationManager) GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Olist e-commerce dataset schema",
			Up: `
				CREATE TABLE IF NOT EXISTS customers (
					customer_id VARCHAR PRIMARY KEY,
					customer_unique_id VARCHAR,
					customer_zip_code_prefix VARCHAR,
					customer_city VARCHAR,
					customer_state VARCHAR
				);

				CREATE TABLE IF NOT EXISTS sellers (
					seller_id VARCHAR PRIMARY KEY,
					seller_zip_code_prefix VARCHAR,
					seller_city VARCHAR,
					seller_state VARCHAR
				);

				CREATE TABLE IF NOT EXISTS products (
					product_id VARCHAR PRIMARY KEY,
					product_category_name VARCHAR,
					product_name_length INTEGER,
					product_description_length INTEGER,
					product_photos_qty INTEGER,
					product_weight_g DOUBLE,
					product_length_cm DOUBLE,
					product_height_cm DOUBLE,
					product_width_cm DOUBLE
				);

				CREATE TABLE IF NOT EXISTS geolocation (
					id BIGINT PRIMARY KEY,
					geolocation_zip_code_prefix VARCHAR,
					geolocation_lat DOUBLE,
					geolocation_lng DOUBLE,
					geolocation_city VARCHAR,
					geolocation_state VARCHAR
				);

				CREATE TABLE IF NOT EXISTS category_translations (
					id BIGINT PRIMARY KEY,
					product_category_name VARCHAR UNIQUE,
					product_category_name_english VARCHAR
				);

				CREATE TABLE IF NOT EXISTS orders (
					order_id VARCHAR PRIMARY KEY,
					customer_id VARCHAR,
					order_status VARCHAR,
					order_purchase_timestamp TIMESTAMP,
					order_approved_at TIMESTAMP,
					order_delivered_carrier_date TIMESTAMP,
					order_delivered_customer_date TIMESTAMP,
					order_estimated_delivery_date TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(customer_id)
				);

				CREATE TABLE IF NOT EXISTS order_items (
					id BIGINT PRIMARY KEY,
					order_id VARCHAR,
					order_item_id INTEGER,
					product_id VARCHAR,
					seller_id VARCHAR,
					shipping_limit_date TIMESTAMP,
					price DOUBLE,
					freight_value DOUBLE,
					FOREIGN KEY (order_id) REFERENCES orders(order_id),
					FOREIGN KEY (product_id) REFERENCES products(product_id),
					FOREIGN KEY (seller_id) REFERENCES sellers(seller_id)
				);

				CREATE TABLE IF NOT EXISTS payments (
					id BIGINT PRIMARY KEY,
					order_id VARCHAR,
					payment_sequential INTEGER,
					payment_type VARCHAR,
					payment_installments INTEGER,
					payment_value DOUBLE,
					FOREIGN KEY (order_id) REFERENCES orders(order_id)
				);

				CREATE TABLE IF NOT EXISTS reviews (
					id BIGINT PRIMARY KEY,
					review_id VARCHAR,
					order_id VARCHAR,
					review_score INTEGER,
					review_comment_title TEXT,
					review_comment_message TEXT,
					review_creation_date TIMESTAMP,
					review_answer_timestamp TIMESTAMP,
					FOREIGN KEY (order_id) REFERENCES orders(order_id)
				);

				CREATE TABLE IF NOT EXISTS seller_products (
					id BIGINT PRIMARY KEY,
					seller_id VARCHAR,
					product_id VARCHAR,
					FOREIGN KEY (seller_id) REFERENCES sellers(seller_id),
					FOREIGN KEY (product_id) REFERENCES products(product_id)
				);

				CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
				CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
				CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);
				CREATE INDEX IF NOT EXISTS idx_order_items_seller_id ON order_items(seller_id);
				CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id);
				CREATE INDEX IF NOT EXISTS idx_reviews_order_id ON reviews(order_id);
				CREATE INDEX IF NOT EXISTS idx_products_category ON products(product_category_name);
				CREATE INDEX IF NOT EXISTS idx_geolocation_zip ON geolocation(geolocation_zip_code_prefix);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_geolocation_zip;
				DROP INDEX IF EXISTS idx_products_category;
				DROP INDEX IF EXISTS idx_reviews_order_id;
				DROP INDEX IF EXISTS idx_payments_order_id;
				DROP INDEX IF EXISTS idx_order_items_seller_id;
				DROP INDEX IF EXISTS idx_order_items_product_id;
				DROP INDEX IF EXISTS idx_order_items_order_id;
				DROP INDEX IF EXISTS idx_orders_customer_id;
				DROP TABLE IF EXISTS seller_products;
				DROP TABLE IF EXISTS reviews;
				DROP TABLE IF EXISTS payments;
				DROP TABLE IF EXISTS order_items;
				DROP TABLE IF EXISTS orders;
				DROP TABLE IF EXISTS category_translations;
				DROP TABLE IF EXISTS geolocation;
				DROP TABLE IF EXISTS products;
				DROP TABLE IF EXISTS sellers;
				DROP TABLE IF EXISTS customers;
			`,
		},
	}
}

// InitializeMigrationTable creates the migration tracking table
func (m *MigrationManager) InitializeMigrationTable(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := m.db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	query := "SELECT version FROM schema_migrations ORDER BY version"

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	defer rows.Close()

	var versions []int

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}

		versions = append(versions, version)
	}

	return versions, rows.Err()
}

// MigrateUp applies all pending migrations
func (m *MigrationManager) MigrateUp(ctx context.Context) error {
	if err := m.InitializeMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	appliedSet := make(map[int]bool, len(applied))
	for _, v := range applied {
		appliedSet[v] = true
	}

	migrations := m.GetMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if appliedSet[migration.Version] {
			continue
		}

		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// applyMigration runs a single migration inside a transaction
func (m *MigrationManager) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
		return fmt.Errorf("migration SQL failed: %w", err)
	}

	insertSQL := "INSERT INTO schema_migrations (version, description) VALUES (?, ?)"
	if _, err := tx.ExecContext(ctx, insertSQL, migration.Version, migration.Description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// CurrentVersion returns the highest applied migration version, 0 when none
func (m *MigrationManager) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.InitializeMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	current := 0
	for _, v := range applied {
		if v > current {
			current = v
		}
	}

	return current, nil
}
