package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRepository persists orders and the verdict audit trail.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, bool, error)
	FindOrderByTxHash(ctx context.Context, txHash string) (domain.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// ValidationError lists the intake fields that were missing or malformed.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

type CreateOrderInput struct {
	Amount   decimal.Decimal
	Currency string
	Network  string
	Items    []string
	BuyerRef string
	TxHash   string
}

// Orders records intent to pay. It deliberately does not validate the tx
// hash format and never calls the verifier: verification is a separate,
// explicit step owned by the caller.
type Orders struct {
	repo  OrderRepository
	newID func() string
	now   func() time.Time
}

func NewOrders(repo OrderRepository) (*Orders, error) {
	if repo == nil {
		return nil, errors.New("order repository is required")
	}
	return &Orders{repo: repo, newID: uuid.NewString, now: time.Now}, nil
}

func (o *Orders) Create(ctx context.Context, input CreateOrderInput) (domain.Order, error) {
	var missing []string
	if !input.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if len(input.Items) == 0 {
		missing = append(missing, "items")
	}
	txHash := strings.TrimSpace(input.TxHash)
	if txHash == "" {
		missing = append(missing, "tx_hash")
	}
	if len(missing) > 0 {
		return domain.Order{}, &ValidationError{Missing: missing}
	}

	currency := input.Currency
	if currency == "" {
		currency = "USDT"
	}
	network := input.Network
	if network == "" {
		network = "BEP20"
	}

	created := o.now().UTC()
	order := domain.Order{
		ID:        o.newID(),
		Amount:    input.Amount,
		Currency:  currency,
		Network:   network,
		Items:     input.Items,
		BuyerRef:  input.BuyerRef,
		TxHash:    txHash,
		Status:    domain.OrderPendingVerification,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := o.repo.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (o *Orders) Get(ctx context.Context, id string) (domain.Order, bool, error) {
	return o.repo.GetOrder(ctx, id)
}

// Settle applies a terminal verdict to the order matching the transaction.
// Pending verdicts are ignored: they resolve themselves.
func (o *Orders) Settle(ctx context.Context, id string, verdict domain.Verdict) error {
	if !verdict.Terminal() {
		return nil
	}
	status := domain.OrderRejected
	if verdict.Verified() {
		status = domain.OrderPaid
	}
	return o.repo.UpdateOrderStatus(ctx, id, status)
}

// SettleTx settles by order id when one is known, otherwise by looking up
// the order that declared the transaction hash. A verdict with no matching
// order is dropped without error: not every verification belongs to an order.
func (o *Orders) SettleTx(ctx context.Context, orderID, txHash string, verdict domain.Verdict) error {
	if !verdict.Terminal() {
		return nil
	}
	id := orderID
	if id == "" {
		order, found, err := o.repo.FindOrderByTxHash(ctx, txHash)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		id = order.ID
	}
	return o.Settle(ctx, id, verdict)
}
