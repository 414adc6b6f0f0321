package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"numera/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Student{},
		&models.Tutor{},
		&models.Course{},
		&models.CourseGrant{},
		&models.PointAction{},
		&models.PointAward{},
		&models.ResourceAccount{},
		&models.ResourceTransaction{},
		&models.StreakRecord{},
		&models.Achievement{},
		&models.AchievementUnlock{},
		&models.RedemptionRequest{},
		&models.ShopCategory{},
		&models.ShopItem{},
		&models.ItemOwned{},
		&models.Purchase{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func seedStudentWithTutor(t *testing.T, db *gorm.DB, username string) (*models.Student, *models.Tutor) {
	t.Helper()

	tutor := models.Tutor{
		FirstName: "Pat",
		LastName:  "Tutor",
		Email:     username + "-tutor@example.com",
	}
	if err := db.Create(&tutor).Error; err != nil {
		t.Fatalf("failed to create tutor: %v", err)
	}

	student := models.Student{
		Username:  username,
		FirstName: "Sam",
		TutorID:   &tutor.ID,
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	return &student, &tutor
}

func seedCourse(t *testing.T, db *gorm.DB, code string, priceCoins int, priceUSD float64, levelRequired int) *models.Course {
	t.Helper()

	course := models.Course{
		Code:          code,
		Title:         "Course " + code,
		PriceCoins:    priceCoins,
		PriceUSD:      priceUSD,
		LevelRequired: levelRequired,
		Active:        true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return &course
}

func seedShopItem(t *testing.T, db *gorm.DB, categorySlug, name string, price, levelRequired int) *models.ShopItem {
	t.Helper()

	var cat models.ShopCategory
	if err := db.Where(models.ShopCategory{Slug: categorySlug}).
		Attrs(models.ShopCategory{Name: categorySlug, Active: true}).
		FirstOrCreate(&cat).Error; err != nil {
		t.Fatalf("failed to create shop category: %v", err)
	}

	item := models.ShopItem{
		CategoryID:    cat.ID,
		Name:          name,
		Rarity:        "common",
		PriceCoins:    price,
		LevelRequired: levelRequired,
		Available:     true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to create shop item: %v", err)
	}
	return &item
}

func seedAchievement(t *testing.T, db *gorm.DB, code, triggerType string, threshold, xpReward int, secret bool) *models.Achievement {
	t.Helper()

	def := models.Achievement{
		Code:             code,
		Name:             "Achievement " + code,
		Description:      "test achievement",
		Category:         "test",
		Rarity:           "common",
		TriggerType:      triggerType,
		TriggerThreshold: threshold,
		XPReward:         xpReward,
		Active:           true,
		Secret:           secret,
	}
	if err := db.Create(&def).Error; err != nil {
		t.Fatalf("failed to create achievement: %v", err)
	}
	return &def
}

// dayAt builds a fixed UTC timestamp for streak and expiry tests.
func dayAt(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
