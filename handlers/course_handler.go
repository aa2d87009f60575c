package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mnacademy/academy/database"
	"github.com/mnacademy/academy/models"
)

func ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	if err := database.DB.Order("title asc").Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load courses"})
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   courses,
	})
}

func GetCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := database.DB.Where("slug = ?", c.Params("courseSlug")).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   course,
	})
}
