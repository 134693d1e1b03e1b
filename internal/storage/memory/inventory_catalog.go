package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// InventoryCatalog — простая in-memory реализация InventoryCatalog.
type InventoryCatalog struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewInventoryCatalog возвращает in-memory каталог товаров
// для локальной разработки и тестов.
func NewInventoryCatalog() *InventoryCatalog {
	return &InventoryCatalog{
		items: make(map[string]domain.Product),
	}
}

// Add регистрирует товар, если ID ещё не занят.
func (c *InventoryCatalog) Add(product domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[product.ID]; exists {
		return domain.ErrProductExists
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
		product.UpdatedAt = product.CreatedAt
	}
	c.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (c *InventoryCatalog) Get(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.items[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

// FindAllByIDs возвращает существующие товары в порядке запрошенных
// идентификаторов; отсутствующие и повторные идентификаторы пропускаются.
func (c *InventoryCatalog) FindAllByIDs(ids []string) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := c.items[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// UpdateQuantities применяет новые абсолютные остатки одним батчем.
// Неизвестный товар в батче — ошибка, частично применённые обновления остаются.
func (c *InventoryCatalog) UpdateQuantities(updates []domain.QuantityUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, update := range updates {
		product, ok := c.items[update.ProductID]
		if !ok {
			return &domain.ProductNotFoundError{ProductID: update.ProductID}
		}
		product.Quantity = update.Quantity
		product.UpdatedAt = time.Now().UTC()
		c.items[update.ProductID] = product
	}
	return nil
}

var _ domain.InventoryCatalog = (*InventoryCatalog)(nil)
