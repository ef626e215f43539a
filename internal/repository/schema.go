package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The unique index on (lease_id, due_date) backs the existence check done
// before every insert; concurrent generators that both pass the check get a
// constraint error on the second insert instead of a duplicate row.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS leases (
	id TEXT PRIMARY KEY,
	agreement_number TEXT NOT NULL DEFAULT '',
	rent_amount NUMERIC(14, 2),
	start_date DATE NOT NULL,
	end_date DATE,
	rent_due_day INTEGER DEFAULT 1,
	status TEXT NOT NULL,
	daily_late_fee NUMERIC(14, 2)
);

CREATE TABLE IF NOT EXISTS unified_payments (
	id UUID PRIMARY KEY,
	lease_id TEXT NOT NULL REFERENCES leases (id),
	amount NUMERIC(14, 2) NOT NULL,
	amount_paid NUMERIC(14, 2) NOT NULL DEFAULT 0,
	balance NUMERIC(14, 2) NOT NULL,
	payment_date DATE,
	due_date DATE NOT NULL,
	original_due_date DATE NOT NULL,
	status TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'rent',
	description TEXT NOT NULL DEFAULT '',
	days_overdue INTEGER NOT NULL DEFAULT 0,
	late_fine_amount NUMERIC(14, 2) NOT NULL DEFAULT 0,
	daily_late_fee NUMERIC(14, 2),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS unified_payments_lease_due_date_key
	ON unified_payments (lease_id, due_date);

CREATE INDEX IF NOT EXISTS unified_payments_status_due_date_idx
	ON unified_payments (status, due_date);
`

// Money is stored as TEXT in SQLite so no precision is lost.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leases (
	id TEXT PRIMARY KEY,
	agreement_number TEXT NOT NULL DEFAULT '',
	rent_amount TEXT,
	start_date DATE NOT NULL,
	end_date DATE,
	rent_due_day INTEGER DEFAULT 1,
	status TEXT NOT NULL,
	daily_late_fee TEXT
);

CREATE TABLE IF NOT EXISTS unified_payments (
	id TEXT PRIMARY KEY,
	lease_id TEXT NOT NULL REFERENCES leases (id),
	amount TEXT NOT NULL,
	amount_paid TEXT NOT NULL DEFAULT '0',
	balance TEXT NOT NULL,
	payment_date DATE,
	due_date DATE NOT NULL,
	original_due_date DATE NOT NULL,
	status TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'rent',
	description TEXT NOT NULL DEFAULT '',
	days_overdue INTEGER NOT NULL DEFAULT 0,
	late_fine_amount TEXT NOT NULL DEFAULT '0',
	daily_late_fee TEXT,
	created_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS unified_payments_lease_due_date_key
	ON unified_payments (lease_id, due_date);

CREATE INDEX IF NOT EXISTS unified_payments_status_due_date_idx
	ON unified_payments (status, due_date);
`

// Migrate creates the leases and unified_payments tables for the driver
// behind db when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var schema string
	switch db.DriverName() {
	case "postgres":
		schema = postgresSchema
	case "sqlite3":
		schema = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", db.DriverName())
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
