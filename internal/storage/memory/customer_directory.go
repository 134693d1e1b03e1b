package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// CustomerDirectory — простая in-memory реализация CustomerDirectory.
type CustomerDirectory struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
}

// NewCustomerDirectory возвращает in-memory справочник клиентов
// для локальной разработки и тестов.
func NewCustomerDirectory() *CustomerDirectory {
	return &CustomerDirectory{
		items: make(map[string]domain.Customer),
	}
}

// Add регистрирует клиента, если ID ещё не занят.
func (d *CustomerDirectory) Add(customer domain.Customer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.items[customer.ID]; exists {
		return domain.ErrCustomerExists
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
		customer.UpdatedAt = customer.CreatedAt
	}
	d.items[customer.ID] = customer
	return nil
}

// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
func (d *CustomerDirectory) FindByID(id string) (domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	customer, ok := d.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

var _ domain.CustomerDirectory = (*CustomerDirectory)(nil)
