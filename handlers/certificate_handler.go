package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/mnacademy/academy/database"
	"github.com/mnacademy/academy/models"
	"github.com/mnacademy/academy/services"
	"github.com/mnacademy/academy/store"
)

// CertificateHandler exposes issuance, listing, download and public
// verification over HTTP. The service is injected so tests can run the
// handler against doubles.
type CertificateHandler struct {
	service *services.CertificateService
}

func NewCertificateHandler(service *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: service}
}

func currentUserID(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	return claims["user_id"].(string)
}

// EnsureCertificate issues the learner's certificate for a completed
// course, or returns the existing one. The completion signal itself is the
// caller's: reaching this endpoint means the lesson browser marked every
// lesson done.
func (h *CertificateHandler) EnsureCertificate(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	slug := c.Params("courseSlug")
	var course models.Course
	if err := database.DB.Where("slug = ?", slug).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	cert, err := h.service.EnsureCertificate(c.Context(), userID, user.FullName, course)
	if err != nil {
		log.Printf("🔥 Certificate issuance failed for learner %s, course %s: %v", userID, course.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue certificate"})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   cert,
	})
}

// ListMyCertificates returns the learner's merged certificate list.
func (h *CertificateHandler) ListMyCertificates(c *fiber.Ctx) error {
	userID := currentUserID(c)

	certs, err := h.service.ListCertificates(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load certificates"})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   certs,
	})
}

// DownloadCertificate renders one of the learner's own certificates to a
// PDF and returns the hosted URL.
func (h *CertificateHandler) DownloadCertificate(c *fiber.Ctx) error {
	userID := currentUserID(c)
	code := c.Params("code")

	certs, err := h.service.ListCertificates(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load certificates"})
	}

	for _, cert := range certs {
		if !strings.EqualFold(cert.CertificateNumber, strings.TrimSpace(code)) {
			continue
		}
		url, err := services.RenderCertificate(cert)
		if err != nil {
			log.Printf("🔥 Certificate render failed for %s: %v", cert.CertificateNumber, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to render certificate"})
		}
		return c.JSON(fiber.Map{
			"status": "success",
			"url":    url,
		})
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
}

// VerifyCertificate is the public verification surface: anyone holding a
// code can confirm the credential it names.
func (h *CertificateHandler) VerifyCertificate(c *fiber.Ctx) error {
	code := c.Params("code")

	cert, err := h.service.VerifyCertificate(c.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status": "not_found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Verification failed"})
	}

	return c.JSON(fiber.Map{
		"status":      "valid",
		"certificate": cert,
	})
}
