package handler

import (
	"errors"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its category maps to. Unexpected
// errors are logged with their cause and rendered as a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	body := fiber.Map{"error": apperr.Public(err)}

	var stockErr *apperr.StockError
	if errors.As(err, &stockErr) {
		body["product_id"] = stockErr.ProductID
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	}

	if status >= fiber.StatusInternalServerError {
		logging.FromContext(c.UserContext()).Error("request failed",
			"path", c.Path(), "error", apperr.Cause(err))
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler renders errors returned from handlers and fiber itself.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return respondError(c, err)
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}
