package database

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	config "github.com/mnacademy/academy/configs"
	"github.com/mnacademy/academy/models"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Certificate{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName:           config.Config("ADMIN_FULL_NAME"),
		Email:              adminEmail,
		Password:           string(hashedPassword),
		Role:               "admin",
		SubscriptionActive: true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedCourses loads the static catalog on first boot. Course content lives
// elsewhere; the platform only needs the facts a certificate snapshots.
func SeedCourses() {
	var count int64
	if err := DB.Model(&models.Course{}).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check course catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	courses := []models.Course{
		{
			ID:               "network-foundations",
			Slug:             "network-foundations",
			Title:            "Network Foundations",
			Level:            "Beginner",
			Duration:         "4 weeks",
			TotalLessonCount: 4,
		},
		{
			ID:               "routing-essentials",
			Slug:             "routing-essentials",
			Title:            "Routing Essentials",
			Level:            "Intermediate",
			Duration:         "6 weeks",
			TotalLessonCount: 9,
		},
		{
			ID:               "network-security-basics",
			Slug:             "network-security-basics",
			Title:            "Network Security Basics",
			Level:            "Intermediate",
			Duration:         "5 weeks",
			TotalLessonCount: 7,
		},
	}
	for i := range courses {
		courses[i].CreatedAt = time.Now()
		courses[i].UpdatedAt = time.Now()
	}

	if err := DB.Create(&courses).Error; err != nil {
		log.Fatalf("🔥 Failed to seed course catalog: %v", err)
		return
	}
	log.Println("✅ Course catalog seeded successfully")
}
