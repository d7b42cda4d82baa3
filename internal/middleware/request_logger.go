package middleware

import (
	"log/slog"
	"time"

	"go-pos-ws/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger puts a request-scoped logger into the user context and logs
// one line per request. It expects the requestid middleware to run first.
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := base.With(
			"method", c.Method(),
			"path", c.Path(),
			"remote_ip", c.IP(),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With("request_id", rid)
		}
		c.SetUserContext(logging.IntoContext(c.UserContext(), l))

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's error handler write the response so the status is final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		dur := time.Since(start)
		status := c.Response().StatusCode()

		// the handler may have added fields such as user_id
		l = logging.FromContext(c.UserContext())
		switch {
		case err != nil || status >= 500:
			l.Error("request completed", "status", status, "duration_ms", dur.Milliseconds(), "error", err)
		case status >= 400:
			l.Warn("request completed", "status", status, "duration_ms", dur.Milliseconds())
		default:
			l.Info("request completed", "status", status, "duration_ms", dur.Milliseconds(), "bytes", len(c.Response().Body()))
		}
		return nil
	}
}
