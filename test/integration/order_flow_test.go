package integration

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

// capturingPublisher накапливает опубликованные сообщения.
type capturingPublisher struct {
	published []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(msg domain.OutboxMessage) error {
	p.published = append(p.published, msg)
	return nil
}

// OrderFlowTestSuite проверяет полный путь заказа: оформление,
// списание остатков и доставку события через outbox-relay.
type OrderFlowTestSuite struct {
	suite.Suite
	customers *memory.CustomerDirectory
	catalog   *memory.InventoryCatalog
	ledger    *memory.OrderLedger
	outbox    *memory.OutboxRepository
	workflow  *order.Workflow
	publisher *capturingPublisher
	worker    *outbox.Worker
}

func (suite *OrderFlowTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.customers = memory.NewCustomerDirectory()
	suite.catalog = memory.NewInventoryCatalog()
	suite.ledger = memory.NewOrderLedger()
	suite.outbox = memory.NewOutboxRepository()

	suite.workflow = order.NewWorkflowWithoutMetrics(
		suite.customers,
		suite.catalog,
		suite.ledger,
		suite.outbox,
		logger,
	)

	suite.publisher = &capturingPublisher{}
	suite.worker = outbox.NewWorker(suite.outbox, suite.publisher, outbox.Options{
		Logger: logger,
	})

	require.NoError(suite.T(), suite.customers.Add(domain.Customer{
		ID: "C1", Name: "Alice Johnson", Email: "alice@example.com",
	}))
	require.NoError(suite.T(), suite.catalog.Add(domain.Product{
		ID: "P1", Name: "Espresso beans 1kg", PriceMinor: 1000, Quantity: 5,
	}))
	require.NoError(suite.T(), suite.catalog.Add(domain.Product{
		ID: "P2", Name: "Moka pot", PriceMinor: 2000, Quantity: 1,
	}))
}

func (suite *OrderFlowTestSuite) TestCreateOrderAndRelayEvent() {
	created, err := suite.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	})
	suite.Require().NoError(err)
	suite.Equal(int64(4000), created.AmountMinor)

	// Relay доставляет событие и очищает backlog.
	suite.worker.ProcessOnce(context.Background())

	suite.Require().Len(suite.publisher.published, 1)
	suite.Equal(created.ID, suite.publisher.published[0].AggregateID)
	suite.Equal("order.created", suite.publisher.published[0].EventType)

	pending, err := suite.outbox.PullPending(10)
	suite.Require().NoError(err)
	suite.Empty(pending)
}

func (suite *OrderFlowTestSuite) TestRejectedOrderLeavesNoTraces() {
	_, err := suite.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P2", Quantity: 5},
	})
	suite.Require().ErrorIs(err, domain.ErrInsufficientStock)

	suite.Equal(0, suite.ledger.CreateCalls())

	suite.worker.ProcessOnce(context.Background())
	suite.Empty(suite.publisher.published)

	product, err := suite.catalog.Get("P2")
	suite.Require().NoError(err)
	suite.Equal(int32(1), product.Quantity)
}

func (suite *OrderFlowTestSuite) TestSequentialOrdersDrainStock() {
	for i := 0; i < 2; i++ {
		_, err := suite.workflow.CreateOrder("C1", []domain.RequestedLine{
			{ProductID: "P1", Quantity: 2},
		})
		suite.Require().NoError(err)
	}

	product, err := suite.catalog.Get("P1")
	suite.Require().NoError(err)
	suite.Equal(int32(1), product.Quantity)

	// Третий заказ на 2 единицы уже не проходит.
	_, err = suite.workflow.CreateOrder("C1", []domain.RequestedLine{
		{ProductID: "P1", Quantity: 2},
	})
	suite.Require().ErrorIs(err, domain.ErrInsufficientStock)

	orders, err := suite.ledger.ListByCustomer("C1", 0)
	suite.Require().NoError(err)
	suite.Len(orders, 2)

	suite.worker.ProcessOnce(context.Background())
	suite.Len(suite.publisher.published, 2)
}

func TestOrderFlowTestSuite(t *testing.T) {
	suite.Run(t, new(OrderFlowTestSuite))
}
