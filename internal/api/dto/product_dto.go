package dto

import (
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// PriceUpdateRequest payload for repricing a product.
type PriceUpdateRequest struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// ProductResponse is the outward product representation.
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProductResponse maps a domain product to its outward form.
func NewProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Currency:  product.Currency,
		UpdatedAt: product.UpdatedAt,
	}
}
