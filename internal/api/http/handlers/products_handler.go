package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/service"
)

// ProductsHandler exposes the price-change endpoint.
type ProductsHandler struct {
	products *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService *service.ProductService) *ProductsHandler {
	return &ProductsHandler{products: productService}
}

// Get handles GET /products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	product, err := h.products.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"product": dto.NewProductResponse(product)}})
}

// UpdatePrice handles PUT /products/:id/price; admin only.
func (h *ProductsHandler) UpdatePrice(c *fiber.Ctx) error {
	var req dto.PriceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	product, err := h.products.UpdatePrice(c.Context(), c.Params("id"), req.Price, req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"product": dto.NewProductResponse(product)}})
}
