package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/mnacademy/academy/handlers"
	"github.com/mnacademy/academy/middleware"
)

func CertificateRoutes(app *fiber.App, h *handlers.CertificateHandler) {
	api := app.Group("/api/v1")

	certs := api.Group("/certificates", middleware.Protected(), middleware.SubscriptionRequired())
	certs.Get("", h.ListMyCertificates)
	certs.Post("/:courseSlug", h.EnsureCertificate)
	certs.Get("/:code/download", h.DownloadCertificate)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeDashboardWs))
}
