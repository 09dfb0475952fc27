package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

// Store is the persistence contract for orders and the verdict audit
// trail. Both SQL backends satisfy it through the shared repository.
type Store interface {
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, bool, error)
	FindOrderByTxHash(ctx context.Context, txHash string) (domain.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	RecordVerdict(ctx context.Context, record domain.VerdictRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// Open selects the backend by driver name. An empty driver means sqlite,
// matching the single-file default of a local deployment.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "mysql":
		return NewMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported orders db driver %q", driver)
	}
}

// repository holds the CRUD shared by both backends. The SQL sticks to
// `?` placeholders and ANSI types so sqlite and mysql run it unchanged.
type repository struct {
	db *sql.DB
}

func (r *repository) CreateOrder(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO orders
		(id, amount, currency, network, items, buyer_ref, tx_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.Amount.String(),
		order.Currency,
		order.Network,
		string(items),
		order.BuyerRef,
		strings.ToLower(order.TxHash),
		string(order.Status),
		order.CreatedAt.Unix(),
		order.UpdatedAt.Unix(),
	)
	return err
}

const orderColumns = `id, amount, currency, network, items, buyer_ref, tx_hash, status, created_at, updated_at`

func (r *repository) GetOrder(ctx context.Context, id string) (domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

func (r *repository) FindOrderByTxHash(ctx context.Context, txHash string) (domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE tx_hash = ? ORDER BY created_at DESC LIMIT 1`, strings.ToLower(txHash))
	return scanOrder(row)
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().Unix(), id)
	return err
}

func (r *repository) RecordVerdict(ctx context.Context, record domain.VerdictRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO verdict_audit
		(tx_hash, buyer_ref, outcome, reason, amount, confirmations, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.ToLower(record.TxHash),
		record.BuyerRef,
		string(record.Outcome),
		string(record.Reason),
		record.Amount.String(),
		record.Confirmations,
		recordedAt.Unix(),
	)
	return err
}

func (r *repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *repository) Close() error {
	return r.db.Close()
}

func scanOrder(row *sql.Row) (domain.Order, bool, error) {
	var order domain.Order
	var amount, itemsRaw, status string
	var createdAt, updatedAt int64
	err := row.Scan(&order.ID, &amount, &order.Currency, &order.Network, &itemsRaw,
		&order.BuyerRef, &order.TxHash, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	order.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Order{}, false, err
	}
	if err := json.Unmarshal([]byte(itemsRaw), &order.Items); err != nil {
		return domain.Order{}, false, err
	}
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = time.Unix(createdAt, 0).UTC()
	order.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return order, true, nil
}
