package domain

import "time"

// RequestedLine — входная пара "товар + количество" из запроса на оформление заказа.
// Положительность количества контролирует вышестоящий слой валидации.
type RequestedLine struct {
	ProductID string
	Quantity  int32
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — идентификатор товара из каталога (ссылка по id, не живой объект).
	ProductID string
	// Qty — количество единиц товара.
	Qty int32
	// PriceMinor — цена за единицу, зафиксированная в момент оформления заказа.
	// Снимок не меняется при последующих изменениях цены в каталоге.
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует оформленный заказ и его позиции.
// После создания заказ и его позиции не изменяются.
type Order struct {
	ID          string
	CustomerID  string
	AmountMinor int64
	Lines       []OrderLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LinesTotal возвращает сумму позиций: qty * price по каждой строке.
func LinesTotal(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += int64(line.Qty) * line.PriceMinor
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}
	// Сверяем сумму заказа с суммой позиций.
	if LinesTotal(o.Lines) != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
