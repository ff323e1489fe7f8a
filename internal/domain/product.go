package domain

import "time"

// Product is the minimal catalog entry this core reads and reprices.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
