package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerNotFound возвращается, если клиент с указанным id не найден.
	ErrCustomerNotFound = errors.New("could not find customer with this id")
	// ErrNoProductsFound возвращается, когда ни один из запрошенных товаров не найден.
	ErrNoProductsFound = errors.New("could not find any products")
	// ErrProductNotFound — базовая ошибка для отсутствующего товара; см. ProductNotFoundError.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — базовая ошибка нехватки остатка; см. InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в реестре.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerExists возвращается при попытке создать клиента с занятым id.
	ErrCustomerExists = errors.New("customer already exists")
	// ErrProductExists возвращается при попытке создать товар с занятым id.
	ErrProductExists = errors.New("product already exists")
	// Ошибка отсутствующего идентификатора клиента в заказе.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка при некорректном количестве в позиции (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// ProductNotFoundError сообщает о первом товаре из запроса, которого нет в каталоге.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("could not find the product %s", e.ProductID)
}

// Unwrap позволяет сопоставлять ошибку с ErrProductNotFound через errors.Is.
func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InsufficientStockError сообщает о товаре, остатка которого не хватает под заказ.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ordered quantity of the product %s is not available", e.ProductID)
}

// Unwrap позволяет сопоставлять ошибку с ErrInsufficientStock через errors.Is.
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsProductNotFound проверяет, является ли ошибка отсутствием товара.
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
