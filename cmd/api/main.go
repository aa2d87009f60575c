package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	config "github.com/mnacademy/academy/configs"
	"github.com/mnacademy/academy/database"
	"github.com/mnacademy/academy/handlers"
	"github.com/mnacademy/academy/jobs"
	"github.com/mnacademy/academy/models"
	"github.com/mnacademy/academy/notifications"
	"github.com/mnacademy/academy/routes"
	"github.com/mnacademy/academy/services"
	"github.com/mnacademy/academy/store"
	"github.com/mnacademy/academy/websocket"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.SeedCourses()
	notifications.InitEmailService()

	localPath := config.Config("LOCAL_STORE_PATH")
	if localPath == "" {
		localPath = "data/certificates.db"
	}
	localStore, err := store.OpenLocal(localPath)
	if err != nil {
		log.Fatalf("🔥 Failed to open local certificate store: %v", err)
	}
	defer localStore.Close()

	remoteStore := store.NewRemote(database.DB)

	certService := services.NewCertificateService(remoteStore, localStore)
	certService.OnIssued = func(cert models.Certificate) {
		websocket.NotifyIssued(cert)

		var user models.User
		if err := database.DB.Where("id = ?", cert.LearnerID).First(&user).Error; err != nil {
			log.Printf("🔥 Could not load learner %s for issuance email: %v", cert.LearnerID, err)
			return
		}
		go notifications.SendCertificateIssuedEmail(user.FullName, user.Email, cert.CourseTitle, cert.CertificateNumber)
	}

	certHandler := handlers.NewCertificateHandler(certService)

	syncJob := jobs.NewCertificateSync(remoteStore, localStore)
	c := cron.New()
	c.AddFunc("*/5 * * * *", syncJob.Run)
	go c.Start()
	log.Println("✅ Cron job for certificate sync scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "MNA Academy",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to MNA Academy API",
		})
	})

	routes.PublicRoutes(app, certHandler)
	routes.AuthRoutes(app)
	routes.CertificateRoutes(app, certHandler)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
