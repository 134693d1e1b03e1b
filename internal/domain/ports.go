package domain

import "time"

// CustomerDirectory описывает справочник клиентов.
type CustomerDirectory interface {
	// FindByID возвращает клиента по идентификатору или ErrCustomerNotFound.
	FindByID(id string) (Customer, error)
}

// InventoryCatalog описывает каталог товаров с остатками.
type InventoryCatalog interface {
	// FindAllByIDs возвращает только существующие товары из запрошенного набора.
	// Отсутствующие идентификаторы молча пропускаются, это не ошибка.
	FindAllByIDs(ids []string) ([]Product, error)
	// UpdateQuantities применяет новые абсолютные остатки одним батчем.
	UpdateQuantities(updates []QuantityUpdate) error
}

// OrderLedger описывает реестр оформленных заказов.
type OrderLedger interface {
	// Create атомарно сохраняет новый заказ с позициями и возвращает сохранённую запись.
	Create(customer Customer, lines []OrderLine) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
