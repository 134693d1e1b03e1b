package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// OrderLedger — простая in-memory реализация OrderLedger.
type OrderLedger struct {
	mu          sync.RWMutex
	items       map[string]domain.Order
	createCalls int
}

// NewOrderLedger возвращает in-memory реестр заказов
// для локальной разработки и тестов.
func NewOrderLedger() *OrderLedger {
	return &OrderLedger{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ с позициями как единое целое.
func (l *OrderLedger) Create(customer domain.Customer, lines []domain.OrderLine) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.createCalls++

	now := time.Now().UTC()
	// Сохраняем копию позиций, чтобы избежать непредсказуемых мутаций извне.
	stored := make([]domain.OrderLine, len(lines))
	copy(stored, lines)

	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		AmountMinor: domain.LinesTotal(stored),
		Lines:       stored,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.items[order.ID] = order
	return order, nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (l *OrderLedger) Get(id string) (domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	order, ok := l.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListByCustomer возвращает заказы клиента, ограничивая выборку limit (если >0).
func (l *OrderLedger) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Order, 0, len(l.items))
	for _, order := range l.items {
		if order.CustomerID != customerID {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// CreateCalls возвращает число обращений к Create (используется в тестах).
func (l *OrderLedger) CreateCalls() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.createCalls
}

var _ domain.OrderLedger = (*OrderLedger)(nil)
