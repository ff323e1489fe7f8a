package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util"
)

// ProductService owns the price-change entry point.
type ProductService struct {
	products      repository.ProductRepository
	notifications *NotificationService
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository, notifications *NotificationService) *ProductService {
	return &ProductService{products: products, notifications: notifications}
}

// GetProduct fetches one catalog entry.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, err
	}
	return product, nil
}

// UpdatePrice persists the new price and notifies connected clients. The
// notification is best-effort; a failed delivery never rolls the price back.
func (s *ProductService) UpdatePrice(ctx context.Context, id string, newPrice float64, currency string) (*domain.Product, error) {
	if newPrice < 0 {
		return nil, apperrors.NewValidationError("price must not be negative", nil)
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = product.Currency
	}

	oldPrice := product.Price
	if err := s.products.UpdatePrice(ctx, id, newPrice, currency); err != nil {
		return nil, err
	}
	product.Price = newPrice
	product.Currency = currency

	if err := s.notifications.PublishPriceChange(ctx, id, oldPrice, newPrice, currency); err != nil {
		return nil, err
	}
	return product, nil
}
