package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Workflow оформляет заказ: проверяет клиента и каталог, фиксирует цены,
// сохраняет заказ и списывает остатки. Все состояние живёт во внешних
// коллабораторах; сам workflow между вызовами ничего не хранит.
type Workflow struct {
	customers domain.CustomerDirectory
	catalog   domain.InventoryCatalog
	ledger    domain.OrderLedger
	outbox    domain.OutboxRepository // опционально: событие order.created
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewWorkflow создаёт рабочий экземпляр workflow.
func NewWorkflow(
	customers domain.CustomerDirectory,
	catalog domain.InventoryCatalog,
	ledger domain.OrderLedger,
	logger *log.Entry,
) *Workflow {
	if logger == nil {
		logger = log.New().WithField("component", "order-workflow")
	}
	return &Workflow{
		customers: customers,
		catalog:   catalog,
		ledger:    ledger,
		logger:    logger,
		metrics:   metrics.NewOrderMetrics(),
	}
}

// NewWorkflowWithOutbox создаёт workflow, публикующий order.created через outbox.
func NewWorkflowWithOutbox(
	customers domain.CustomerDirectory,
	catalog domain.InventoryCatalog,
	ledger domain.OrderLedger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Workflow {
	w := NewWorkflow(customers, catalog, ledger, logger)
	w.outbox = outbox
	return w
}

// NewWorkflowWithoutMetrics создаёт workflow без метрик (для тестов).
func NewWorkflowWithoutMetrics(
	customers domain.CustomerDirectory,
	catalog domain.InventoryCatalog,
	ledger domain.OrderLedger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Workflow {
	if logger == nil {
		logger = log.New().WithField("component", "order-workflow")
	}
	return &Workflow{
		customers: customers,
		catalog:   catalog,
		ledger:    ledger,
		outbox:    outbox,
		logger:    logger,
	}
}

// CreateOrder проводит запрос через цепочку проверок и, если все они прошли,
// сохраняет заказ и списывает остатки одним батчем. Порядок проверок
// фиксирован: клиент → пустой результат каталога → отсутствующий товар →
// нехватка остатка. До прохождения всех проверок записи не выполняются.
//
// Вызов не идемпотентен: повторный запрос с теми же аргументами создаёт
// новый заказ и ещё раз списывает остатки.
func (w *Workflow) CreateOrder(customerID string, requested []domain.RequestedLine) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.RecordOrderDuration(time.Since(start))
		}
	}()

	customer, err := w.customers.FindByID(customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			w.reject(metrics.RejectReasonCustomerNotFound, customerID, err)
			return domain.Order{}, domain.ErrCustomerNotFound
		}
		return domain.Order{}, fmt.Errorf("find customer %s: %w", customerID, err)
	}

	resolved, err := w.catalog.FindAllByIDs(distinctProductIDs(requested))
	if err != nil {
		return domain.Order{}, fmt.Errorf("find products: %w", err)
	}
	if len(resolved) == 0 {
		w.reject(metrics.RejectReasonNoProductsFound, customerID, domain.ErrNoProductsFound)
		return domain.Order{}, domain.ErrNoProductsFound
	}

	// Индекс по id строится один раз; каталог возвращает уникальные записи.
	productByID := make(map[string]domain.Product, len(resolved))
	for _, product := range resolved {
		productByID[product.ID] = product
	}

	// Отсутствующие товары: в ошибку попадает первый из них в порядке запроса.
	for _, line := range requested {
		if _, ok := productByID[line.ProductID]; !ok {
			rejectErr := &domain.ProductNotFoundError{ProductID: line.ProductID}
			w.reject(metrics.RejectReasonProductNotFound, customerID, rejectErr)
			return domain.Order{}, rejectErr
		}
	}

	// Если товар встречается в запросе несколько раз, и для проверки остатка,
	// и для пересчёта нового остатка берётся количество из первой строки с
	// этим товаром.
	requestedQty := make(map[string]int32, len(requested))
	for _, line := range requested {
		if _, ok := requestedQty[line.ProductID]; !ok {
			requestedQty[line.ProductID] = line.Quantity
		}
	}

	// Проверка остатков идёт в порядке, в котором каталог вернул товары.
	for _, product := range resolved {
		qty, ok := requestedQty[product.ID]
		if !ok {
			continue
		}
		if qty > product.Quantity {
			rejectErr := &domain.InsufficientStockError{ProductID: product.ID}
			w.reject(metrics.RejectReasonInsufficientStock, customerID, rejectErr)
			return domain.Order{}, rejectErr
		}
	}

	now := time.Now().UTC()
	lines := make([]domain.OrderLine, 0, len(requested))
	for _, line := range requested {
		product := productByID[line.ProductID]
		lines = append(lines, domain.OrderLine{
			ID:         uuid.NewString(),
			ProductID:  line.ProductID,
			Qty:        line.Quantity,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
	}

	order, err := w.ledger.Create(customer, lines)
	if err != nil {
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		// Количества приходят от вышестоящей валидации как есть; здесь только
		// сигнализируем, не отклоняя заказ.
		w.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"issues":   joinErrors(errs),
		}).Warn("order persisted with invariant warnings")
	}

	updates := make([]domain.QuantityUpdate, 0, len(order.Lines))
	for _, line := range order.Lines {
		product := productByID[line.ProductID]
		updates = append(updates, domain.QuantityUpdate{
			ProductID: line.ProductID,
			Quantity:  product.Quantity - requestedQty[line.ProductID],
		})
	}
	if err := w.catalog.UpdateQuantities(updates); err != nil {
		// Заказ уже зафиксирован в реестре; компенсации на этом шаге нет.
		w.logger.WithError(err).WithField("order_id", order.ID).Error("stock update failed after order was persisted")
		return domain.Order{}, fmt.Errorf("update stock for order %s: %w", order.ID, err)
	}
	if w.metrics != nil {
		w.metrics.RecordStockUpdates(len(updates))
	}

	w.enqueueCreatedEvent(order)

	if w.metrics != nil {
		w.metrics.RecordOrderCreated(len(order.Lines))
	}
	w.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor,
	}).Info("order created")

	return order, nil
}

// distinctProductIDs возвращает уникальные идентификаторы товаров,
// сохраняя порядок первого вхождения.
func distinctProductIDs(requested []domain.RequestedLine) []string {
	seen := make(map[string]struct{}, len(requested))
	ids := make([]string, 0, len(requested))
	for _, line := range requested {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// enqueueCreatedEvent кладёт order.created в outbox. Заказ уже сохранён,
// поэтому ошибка постановки в очередь только логируется.
func (w *Workflow) enqueueCreatedEvent(order domain.Order) {
	if w.outbox == nil {
		return
	}

	linePayloads := make([]kafka.OrderLinePayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		linePayloads = append(linePayloads, kafka.OrderLinePayload{
			ProductID:  line.ProductID,
			Qty:        line.Qty,
			PriceMinor: line.PriceMinor,
		})
	}

	event := kafka.NewOrderCreatedEvent(order.ID, order.CustomerID, order.AmountMinor, linePayloads)
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order.created event")
		return
	}

	if _, err := w.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(kafka.EventTypeOrderCreated),
		Payload:       payload,
	}); err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue order.created event")
	}
}

func (w *Workflow) reject(reason, customerID string, err error) {
	if w.metrics != nil {
		w.metrics.RecordOrderRejected(reason)
	}
	w.logger.WithError(err).WithFields(log.Fields{
		"customer_id": customerID,
		"reason":      reason,
	}).Info("order request rejected")
}

func joinErrors(errs []error) string {
	msg := ""
	for i, err := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}
