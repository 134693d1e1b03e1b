package domain

import "time"

// Customer представляет клиента магазина.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
