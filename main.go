// main.go
package main

import (
	"log"
	"os"
	"time"

	"numera/database"
	"numera/handlers"
	"numera/middleware"
	"numera/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Validate critical environment variables
	validateEnvironment()

	// Initialize database
	database.InitDB()
	db := database.GetDB()
	defer database.CloseDB()

	// Streak days roll over in one fixed reference timezone so travel and
	// DST cannot break or double-count a streak.
	loc := loadStreakTimezone()

	// Wire services. Resources and achievements reference each other: XP
	// credits trigger evaluation, unlocks credit reward XP.
	resources := services.NewResourceService(db)
	achievements := services.NewAchievementService(db, resources)
	resources.SetAchievementService(achievements)
	streaks := services.NewStreakService(db, loc)
	redemptions := services.NewRedemptionService(db, resources)
	shop := services.NewShopService(db, resources)
	progress := services.NewProgressService(db, resources, streaks)

	handlers.Init(resources, streaks, achievements, redemptions, shop, progress)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.FiberRateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Resource routes
	resourceGroup := api.Group("/resources")
	resourceGroup.Use(middleware.AuthMiddleware)
	resourceGroup.Get("/balance", handlers.GetBalance)
	resourceGroup.Get("/history", handlers.GetHistory)
	resourceGroup.Post("/credit", middleware.RequireRole(middleware.RoleTeacher), handlers.CreditResources)

	// Progress routes
	progressGroup := api.Group("/progress")
	progressGroup.Use(middleware.AuthMiddleware)
	progressGroup.Get("/dashboard", handlers.GetDashboard)
	progressGroup.Get("/streak", handlers.GetStreak)
	progressGroup.Get("/actions", handlers.ListPointActions)
	progressGroup.Post("/award", middleware.RequireRole(middleware.RoleTeacher), handlers.AwardPoints)
	progressGroup.Get("/awards", handlers.GetAwardHistory)

	// Achievement routes
	achievementGroup := api.Group("/achievements")
	achievementGroup.Use(middleware.AuthMiddleware)
	achievementGroup.Get("/", handlers.GetAchievements)
	achievementGroup.Post("/seen", handlers.MarkAchievementsSeen)

	// Course catalog routes
	courseGroup := api.Group("/courses")
	courseGroup.Use(middleware.AuthMiddleware)
	courseGroup.Get("/", handlers.ListCourses)
	courseGroup.Get("/mine", middleware.RequireRole(middleware.RoleStudent), handlers.GetMyCourses)
	courseGroup.Get("/:id", handlers.GetCourse)
	courseGroup.Put("/:id/progress", middleware.RequireRole(middleware.RoleStudent), handlers.UpdateCourseProgress)

	// Redemption routes
	redemptionGroup := api.Group("/redemptions")
	redemptionGroup.Use(middleware.AuthMiddleware)
	redemptionGroup.Post("/", middleware.RequireRole(middleware.RoleStudent), handlers.RequestRedemption)
	redemptionGroup.Get("/mine", middleware.RequireRole(middleware.RoleStudent), handlers.GetMyRedemptions)
	redemptionGroup.Get("/pending", middleware.RequireRole(middleware.RoleTutor), handlers.GetPendingRedemptions)
	redemptionGroup.Get("/history", middleware.RequireRole(middleware.RoleTutor), handlers.GetTutorRedemptionHistory)
	redemptionGroup.Post("/:id/approve", middleware.RequireRole(middleware.RoleTutor), handlers.ApproveRedemption)
	redemptionGroup.Post("/:id/reject", middleware.RequireRole(middleware.RoleTutor), handlers.RejectRedemption)

	// Shop routes
	shopGroup := api.Group("/shop")
	shopGroup.Use(middleware.AuthMiddleware)
	shopGroup.Get("/items", handlers.GetShopItems)
	shopGroup.Get("/items/:id", handlers.GetShopItem)
	shopGroup.Get("/categories", handlers.GetShopCategories)
	shopGroup.Post("/purchase", middleware.RequireRole(middleware.RoleStudent), handlers.PurchaseItem)
	shopGroup.Get("/inventory", handlers.GetInventory)
	shopGroup.Post("/equip", middleware.RequireRole(middleware.RoleStudent), handlers.EquipItem)
	shopGroup.Get("/purchases", handlers.GetPurchaseHistory)

	// Leaderboard routes
	api.Get("/leaderboard", middleware.AuthMiddleware, handlers.GetLeaderboard)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")
	log.Printf("🕐 Streak timezone: %s", loc.String())

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func loadStreakTimezone() *time.Location {
	name := getEnv("STREAK_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("WARNING: invalid STREAK_TIMEZONE %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
