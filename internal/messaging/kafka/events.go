package kafka

import "time"

// EventType определяет тип события.
type EventType string

const (
	// EventTypeOrderCreated публикуется после успешного оформления заказа.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeStockUpdated публикуется после списания остатков под заказ.
	EventTypeStockUpdated EventType = "stock.updated"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "shop.order.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)

// OrderLinePayload — позиция заказа в составе события.
type OrderLinePayload struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

// OrderCreatedEvent представляет событие создания заказа.
type OrderCreatedEvent struct {
	EventType   EventType          `json:"event_type"`
	OrderID     string             `json:"order_id"`
	CustomerID  string             `json:"customer_id"`
	AmountMinor int64              `json:"amount_minor"`
	Lines       []OrderLinePayload `json:"lines"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewOrderCreatedEvent создаёт событие создания заказа.
func NewOrderCreatedEvent(orderID, customerID string, amountMinor int64, lines []OrderLinePayload) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		EventType:   EventTypeOrderCreated,
		OrderID:     orderID,
		CustomerID:  customerID,
		AmountMinor: amountMinor,
		Lines:       lines,
		Timestamp:   time.Now().UTC(),
	}
}
