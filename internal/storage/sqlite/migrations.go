package sqlite

import "database/sql"

// schema creates the snapshot tables. Timestamps are Unix milliseconds (UTC).
// bill_items.product_ref is not a foreign key: bills may reference products
// that were since removed from the catalog.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    price REAL NOT NULL,
    cost_price REAL NOT NULL,
    cost_price_estimated INTEGER NOT NULL DEFAULT 0,
    stock INTEGER NOT NULL,
    min_stock_threshold INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    loyalty_points INTEGER NOT NULL DEFAULT 0,
    credit_outstanding REAL NOT NULL DEFAULT 0,
    visit_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT 0,
    birthday TEXT
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    total REAL NOT NULL,
    payment_mode TEXT NOT NULL,
    customer_id TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bill_items (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    product_ref TEXT NOT NULL,
    product_name TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL,
    unit_price REAL NOT NULL,
    PRIMARY KEY (bill_id, position),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills(created_at);
CREATE INDEX IF NOT EXISTS idx_bills_customer_id ON bills(customer_id);
CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
