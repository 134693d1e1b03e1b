package domain

import "time"

// Product представляет товар каталога с текущей ценой и остатком.
type Product struct {
	ID   string
	Name string
	// PriceMinor — цена за единицу в минорных единицах валюты.
	PriceMinor int64
	// Quantity — доступный остаток на складе.
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuantityUpdate задаёт новый абсолютный остаток товара.
type QuantityUpdate struct {
	ProductID string
	Quantity  int32
}
