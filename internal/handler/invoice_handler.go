package handler

import (
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InvoiceHandler struct {
	service service.InvoiceService
}

func NewInvoiceHandler(s service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: s}
}

// CreateInvoice records a sale
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var req service.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	invoice, err := h.service.CreateInvoice(c.UserContext(), middleware.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetInvoices searches invoices
// GET /api/v1/invoices?customer_name=&min_total=&max_total=&start_date=&end_date=&user_id=&skip=&limit=
func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	filter := model.InvoiceFilter{CustomerName: c.Query("customer_name")}
	var err error
	if filter.MinTotal, err = queryDecimal(c, "min_total"); err != nil {
		return respondError(c, err)
	}
	if filter.MaxTotal, err = queryDecimal(c, "max_total"); err != nil {
		return respondError(c, err)
	}
	if filter.DateRange, err = queryDateRange(c); err != nil {
		return respondError(c, err)
	}
	if filter.UserID, err = queryUUID(c, "user_id"); err != nil {
		return respondError(c, err)
	}
	if filter.Page, err = queryPage(c); err != nil {
		return respondError(c, err)
	}

	invoices, err := h.service.SearchInvoices(c.UserContext(), middleware.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GetSummary aggregates sales in a date range
// GET /api/v1/invoices/summary?start_date=&end_date=
func (h *InvoiceHandler) GetSummary(c *fiber.Ctx) error {
	dates, err := queryDateRange(c)
	if err != nil {
		return respondError(c, err)
	}

	summary, err := h.service.SalesSummary(c.UserContext(), middleware.CurrentUser(c), dates)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	invoice, err := h.service.GetInvoice(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}
