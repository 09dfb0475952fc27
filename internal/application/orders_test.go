package application

import (
	"context"
	"testing"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOrderRepo struct {
	orders map[string]domain.Order
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[string]domain.Order)}
}

func (m *memoryOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *memoryOrderRepo) GetOrder(ctx context.Context, id string) (domain.Order, bool, error) {
	order, ok := m.orders[id]
	return order, ok, nil
}

func (m *memoryOrderRepo) FindOrderByTxHash(ctx context.Context, txHash string) (domain.Order, bool, error) {
	for _, order := range m.orders {
		if order.TxHash == txHash {
			return order, true, nil
		}
	}
	return domain.Order{}, false, nil
}

func (m *memoryOrderRepo) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	order := m.orders[id]
	order.Status = status
	m.orders[id] = order
	return nil
}

func newTestOrders(t *testing.T) (*Orders, *memoryOrderRepo) {
	t.Helper()
	repo := newMemoryOrderRepo()
	orders, err := NewOrders(repo)
	require.NoError(t, err)
	orders.newID = func() string { return "order-1" }
	orders.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return orders, repo
}

func TestCreateOrderDefaults(t *testing.T) {
	orders, repo := newTestOrders(t)

	order, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.RequireFromString("12.50"),
		Items:  []string{"skill-1", "skill-2"},
		TxHash: "  0xabc  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, domain.OrderPendingVerification, order.Status)
	assert.Equal(t, "USDT", order.Currency)
	assert.Equal(t, "BEP20", order.Network)
	assert.Equal(t, "0xabc", order.TxHash)

	stored, ok, err := repo.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order, stored)
}

func TestCreateOrderReportsMissingFields(t *testing.T) {
	orders, _ := newTestOrders(t)

	_, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.Zero,
		TxHash: "   ",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ElementsMatch(t, []string{"amount", "items", "tx_hash"}, validation.Missing)
}

func TestCreateOrderDoesNotValidateHashFormat(t *testing.T) {
	// Intake records intent to pay; hash format checks belong to the verifier.
	orders, _ := newTestOrders(t)

	_, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.RequireFromString("1"),
		Items:  []string{"skill-1"},
		TxHash: "definitely-not-a-hash",
	})
	assert.NoError(t, err)
}

func TestSettleAppliesTerminalVerdicts(t *testing.T) {
	orders, repo := newTestOrders(t)
	_, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.RequireFromString("1"),
		Items:  []string{"skill-1"},
		TxHash: "0xabc",
	})
	require.NoError(t, err)

	// Pending verdicts leave the order untouched.
	require.NoError(t, orders.Settle(context.Background(), "order-1", domain.Verdict{
		Outcome: domain.OutcomePending, Reason: domain.ReasonAwaitingConfirmations,
	}))
	assert.Equal(t, domain.OrderPendingVerification, repo.orders["order-1"].Status)

	require.NoError(t, orders.Settle(context.Background(), "order-1", domain.Verdict{
		Outcome: domain.OutcomeVerified,
	}))
	assert.Equal(t, domain.OrderPaid, repo.orders["order-1"].Status)
}

func TestSettleRejection(t *testing.T) {
	orders, repo := newTestOrders(t)
	_, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.RequireFromString("1"),
		Items:  []string{"skill-1"},
		TxHash: "0xabc",
	})
	require.NoError(t, err)

	require.NoError(t, orders.Settle(context.Background(), "order-1", domain.Verdict{
		Outcome: domain.OutcomeRejected, Reason: domain.ReasonWrongToken,
	}))
	assert.Equal(t, domain.OrderRejected, repo.orders["order-1"].Status)
}

func TestSettleTxResolvesByHash(t *testing.T) {
	orders, repo := newTestOrders(t)
	_, err := orders.Create(context.Background(), CreateOrderInput{
		Amount: decimal.RequireFromString("1"),
		Items:  []string{"skill-1"},
		TxHash: "0xabc",
	})
	require.NoError(t, err)

	// No order id on the event: the hash identifies the order.
	require.NoError(t, orders.SettleTx(context.Background(), "", "0xabc", domain.Verdict{
		Outcome: domain.OutcomeVerified,
	}))
	assert.Equal(t, domain.OrderPaid, repo.orders["order-1"].Status)

	// A verdict for an unknown hash settles nothing and is not an error.
	require.NoError(t, orders.SettleTx(context.Background(), "", "0xdead", domain.Verdict{
		Outcome: domain.OutcomeRejected, Reason: domain.ReasonWrongToken,
	}))
}
