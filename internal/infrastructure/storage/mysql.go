package storage

import (
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"
)

type MySQL struct {
	repository
}

func NewMySQL(dsn string) (*MySQL, error) {
	if dsn == "" {
		return nil, errors.New("db dsn is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createSchema(db, mysqlSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &MySQL{repository{db: db}}, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) NOT NULL,
		amount VARCHAR(64) NOT NULL,
		currency VARCHAR(16) NOT NULL,
		network VARCHAR(16) NOT NULL,
		items MEDIUMTEXT NOT NULL,
		buyer_ref VARCHAR(128) NOT NULL,
		tx_hash VARCHAR(66) NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (id),
		KEY orders_tx_idx (tx_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS verdict_audit (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		tx_hash VARCHAR(66) NOT NULL,
		buyer_ref VARCHAR(128) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		reason VARCHAR(40) NOT NULL,
		amount VARCHAR(64) NOT NULL,
		confirmations BIGINT UNSIGNED NOT NULL,
		recorded_at BIGINT NOT NULL,
		PRIMARY KEY (id),
		KEY verdict_audit_tx_idx (tx_hash)
	)`,
}
