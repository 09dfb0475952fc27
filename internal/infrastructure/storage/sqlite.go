package storage

import (
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	repository
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{repository{db: db}}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		network TEXT NOT NULL,
		items TEXT NOT NULL,
		buyer_ref TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_tx_idx ON orders (tx_hash)`,
	`CREATE TABLE IF NOT EXISTS verdict_audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_hash TEXT NOT NULL,
		buyer_ref TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL,
		amount TEXT NOT NULL,
		confirmations INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS verdict_audit_tx_idx ON verdict_audit (tx_hash)`,
}

func createSchema(db *sql.DB, schema []string) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
