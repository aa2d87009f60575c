package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mnacademy/academy/handlers"
)

// PublicRoutes carries the endpoints an anonymous visitor can reach: the
// course catalog and third-party certificate verification.
func PublicRoutes(app *fiber.App, h *handlers.CertificateHandler) {
	api := app.Group("/api/v1")

	api.Get("/courses", handlers.ListCourses)
	api.Get("/courses/:courseSlug", handlers.GetCourse)
	api.Get("/verify/:code", h.VerifyCertificate)
}
