package handler

import (
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// GetProducts searches the caller's inventory, or every tenant's for admins
// GET /api/v1/products?name=&category=&barcode=&min_price=&max_price=&min_quantity=&max_quantity=&user_id=&skip=&limit=
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	filter, err := productFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	products, err := h.service.SearchProducts(c.UserContext(), middleware.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func productFilter(c *fiber.Ctx) (model.ProductFilter, error) {
	f := model.ProductFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		Barcode:  c.Query("barcode"),
	}
	var err error
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return f, err
	}
	if f.MinQuantity, err = queryInt(c, "min_quantity"); err != nil {
		return f, err
	}
	if f.MaxQuantity, err = queryInt(c, "max_quantity"); err != nil {
		return f, err
	}
	if f.UserID, err = queryUUID(c, "user_id"); err != nil {
		return f, err
	}
	f.Page, err = queryPage(c)
	return f, err
}

func (h *ProductHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStockProducts(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.GetProduct(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdjustStock restocks or writes off
// POST /api/v1/products/:id/adjust
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.AdjustStock(c.UserContext(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock adjusted", "data": product})
}
