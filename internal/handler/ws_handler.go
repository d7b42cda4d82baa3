package handler

import (
	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// wsUpgrade authenticates the handshake. Browsers cannot set headers on a
// websocket request, so the access token comes as ?token=.
func wsUpgrade(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		token := c.Query("token")
		if token == "" {
			return respondError(c, apperr.Unauthorized("missing authorization token"))
		}
		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}
		c.Locals("user", user)
		return c.Next()
	}
}

func wsStream(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		user := c.Locals("user").(*model.User)
		client := &ws.Client{Conn: c, UserID: user.ID, Admin: user.IsAdmin()}

		if !hub.Register(client) {
			return
		}
		defer func() {
			hub.Unregister(client)
			// the connection goes back to the pool when this handler returns
			client.Wait()
		}()

		for {
			// Keep alive loop; clients only listen
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
