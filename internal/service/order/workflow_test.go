package order_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

// testEnv собирает workflow поверх in-memory адаптеров
// с каталогом из двух товаров: P1 (10.00, остаток 5) и P2 (20.00, остаток 1).
type testEnv struct {
	customers *memory.CustomerDirectory
	catalog   *memory.InventoryCatalog
	ledger    *memory.OrderLedger
	outbox    *memory.OutboxRepository
	workflow  *order.Workflow
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		customers: memory.NewCustomerDirectory(),
		catalog:   memory.NewInventoryCatalog(),
		ledger:    memory.NewOrderLedger(),
		outbox:    memory.NewOutboxRepository(),
	}
	env.workflow = order.NewWorkflowWithoutMetrics(env.customers, env.catalog, env.ledger, env.outbox, nil)

	require.NoError(t, env.customers.Add(domain.Customer{ID: "C1", Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, env.catalog.Add(domain.Product{ID: "P1", Name: "Espresso beans", PriceMinor: 1000, Quantity: 5}))
	require.NoError(t, env.catalog.Add(domain.Product{ID: "P2", Name: "Moka pot", PriceMinor: 2000, Quantity: 1}))

	return env
}

func (e *testEnv) productQty(t *testing.T, id string) int32 {
	t.Helper()
	product, err := e.catalog.Get(id)
	require.NoError(t, err)
	return product.Quantity
}

func TestCreateOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, created.Lines, 2)
	assert.Equal(t, "C1", created.CustomerID)
	assert.NotEmpty(t, created.ID)

	assert.Equal(t, "P1", created.Lines[0].ProductID)
	assert.Equal(t, int32(2), created.Lines[0].Qty)
	assert.Equal(t, int64(1000), created.Lines[0].PriceMinor)

	assert.Equal(t, "P2", created.Lines[1].ProductID)
	assert.Equal(t, int32(1), created.Lines[1].Qty)
	assert.Equal(t, int64(2000), created.Lines[1].PriceMinor)

	assert.Equal(t, int64(2*1000+1*2000), created.AmountMinor)

	// Остатки списаны под заказ.
	assert.Equal(t, int32(3), env.productQty(t, "P1"))
	assert.Equal(t, int32(0), env.productQty(t, "P2"))

	// Реестр вызван ровно один раз.
	assert.Equal(t, 1, env.ledger.CreateCalls())

	stored, err := env.ledger.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Lines, stored.Lines)
}

func TestCreateOrder_LinePriceIsCatalogSnapshot(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P1", Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(1000), created.Lines[0].PriceMinor)

	// Последующие изменения каталога не влияют на сохранённые строки.
	require.NoError(t, env.catalog.UpdateQuantities([]domain.QuantityUpdate{{ProductID: "P1", Quantity: 99}}))
	stored, err := env.ledger.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Lines[0].PriceMinor)
	assert.Equal(t, int32(1), stored.Lines[0].Qty)
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.CreateOrder("C9", []domain.RequestedLine{{ProductID: "P1", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	// Ни заказа, ни изменений остатков.
	assert.Equal(t, 0, env.ledger.CreateCalls())
	assert.Equal(t, int32(5), env.productQty(t, "P1"))
}

func TestCreateOrder_NoProductsFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P9", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrNoProductsFound)
	assert.Equal(t, 0, env.ledger.CreateCalls())
}

func TestCreateOrder_NoProductsFound_EmptyRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.CreateOrder("C1", nil)
	require.ErrorIs(t, err, domain.ErrNoProductsFound)
}

func TestCreateOrder_ProductNotFound_FirstInRequestOrder(t *testing.T) {
	env := newTestEnv(t)

	// Часть товаров существует: ошибка называет первый отсутствующий
	// в порядке запроса, а не в порядке ответа каталога.
	_, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "P9", Quantity: 1},
		{ProductID: "P8", Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "P9", notFound.ProductID)
	assert.Equal(t, "could not find the product P9", err.Error())

	assert.Equal(t, 0, env.ledger.CreateCalls())
	assert.Equal(t, int32(5), env.productQty(t, "P1"))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P2", Quantity: 2}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "P2", insufficient.ProductID)

	// Остаток не тронут.
	assert.Equal(t, int32(1), env.productQty(t, "P2"))
	assert.Equal(t, 0, env.ledger.CreateCalls())
}

func TestCreateOrder_InsufficientStock_ReportsFirstResolved(t *testing.T) {
	env := newTestEnv(t)

	// Не хватает обоих: ошибка называет первый товар в порядке ответа каталога.
	_, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 100},
		{ProductID: "P2", Quantity: 100},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "P1", insufficient.ProductID)
}

func TestCreateOrder_ValidationOrder_CustomerBeforeProducts(t *testing.T) {
	env := newTestEnv(t)

	// Неизвестный клиент и неизвестный товар: первой должна сработать
	// проверка клиента.
	_, err := env.workflow.CreateOrder("C9", []domain.RequestedLine{{ProductID: "P9", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCreateOrder_NotIdempotent(t *testing.T) {
	env := newTestEnv(t)

	request := []domain.RequestedLine{{ProductID: "P1", Quantity: 2}}

	first, err := env.workflow.CreateOrder("C1", request)
	require.NoError(t, err)
	second, err := env.workflow.CreateOrder("C1", request)
	require.NoError(t, err)

	// Два независимых заказа и накопительное списание остатка.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, env.ledger.CreateCalls())
	assert.Equal(t, int32(1), env.productQty(t, "P1"))

	orders, err := env.ledger.ListByCustomer("C1", 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCreateOrder_DuplicateProductLines(t *testing.T) {
	env := newTestEnv(t)

	// Товар повторяется в запросе: обе строки попадают в заказ со
	// своими количествами, но новый остаток считается по первой строке.
	created, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P1", Quantity: 3},
	})
	require.NoError(t, err)

	require.Len(t, created.Lines, 2)
	assert.Equal(t, int32(2), created.Lines[0].Qty)
	assert.Equal(t, int32(3), created.Lines[1].Qty)

	// Остаток 5 - 2 = 3: количество второй строки на остаток не влияет.
	assert.Equal(t, int32(3), env.productQty(t, "P1"))
}

func TestCreateOrder_DuplicateLines_StockCheckUsesFirstQty(t *testing.T) {
	env := newTestEnv(t)

	// Первая строка проходит по остатку, хотя суммарно строки его превышают.
	created, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 4},
		{ProductID: "P1", Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, created.Lines, 2)
	assert.Equal(t, int32(1), env.productQty(t, "P1"))
}

func TestCreateOrder_EnqueuesCreatedEvent(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P1", Quantity: 1}})
	require.NoError(t, err)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	msg := pending[0]
	assert.Equal(t, "order", msg.AggregateType)
	assert.Equal(t, created.ID, msg.AggregateID)
	assert.Equal(t, "order.created", msg.EventType)

	var payload struct {
		OrderID     string `json:"order_id"`
		CustomerID  string `json:"customer_id"`
		AmountMinor int64  `json:"amount_minor"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, created.ID, payload.OrderID)
	assert.Equal(t, "C1", payload.CustomerID)
	assert.Equal(t, int64(1000), payload.AmountMinor)
}

func TestCreateOrder_RejectionLeavesOutboxEmpty(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P2", Quantity: 5}})
	require.Error(t, err)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// failingCatalog подменяет UpdateQuantities, имитируя сбой склада
// после успешной записи заказа.
type failingCatalog struct {
	*memory.InventoryCatalog
	updateErr error
}

func (c *failingCatalog) UpdateQuantities(updates []domain.QuantityUpdate) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	return c.InventoryCatalog.UpdateQuantities(updates)
}

func TestCreateOrder_StockUpdateFailureAfterPersist(t *testing.T) {
	env := newTestEnv(t)

	catalog := &failingCatalog{InventoryCatalog: env.catalog, updateErr: errors.New("inventory is down")}
	workflow := order.NewWorkflowWithoutMetrics(env.customers, catalog, env.ledger, env.outbox, nil)

	_, err := workflow.CreateOrder("C1", []domain.RequestedLine{{ProductID: "P1", Quantity: 1}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "inventory is down")

	// Заказ уже в реестре: компенсации на этом шаге нет.
	assert.Equal(t, 1, env.ledger.CreateCalls())
	assert.Equal(t, int32(5), env.productQty(t, "P1"))
}
