// database/migrate.go - Database Migration Runner
package database

import (
	"log"
	"numera/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Tutor{},
		&models.Student{},
		&models.ResourceAccount{},
		&models.ResourceTransaction{},
		&models.StreakRecord{},
		&models.Achievement{},
		&models.AchievementUnlock{},
		&models.Course{},
		&models.CourseGrant{},
		&models.RedemptionRequest{},
		&models.ShopCategory{},
		&models.ShopItem{},
		&models.ItemOwned{},
		&models.Purchase{},
		&models.PointAction{},
		&models.PointAward{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	log.Println("✅ Migrations completed")

	createIndexes()

	if err := SeedReferenceData(db); err != nil {
		log.Fatalf("❌ Failed to seed reference data: %v", err)
	}

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates the indexes the hot queries depend on
func createIndexes() {
	db := GetDB()
	log.Println("Creating indexes...")

	// Ledger indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_account_type ON resource_transactions(account_id, resource_type)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_created ON resource_transactions(created_at DESC)")

	// Leaderboard ordering
	db.Exec("CREATE INDEX IF NOT EXISTS idx_accounts_xp ON resource_accounts(xp_total DESC)")

	// Redemption workflow lookups
	db.Exec("CREATE INDEX IF NOT EXISTS idx_redemptions_tutor_status ON redemption_requests(tutor_id, status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_redemptions_student_course ON redemption_requests(student_id, course_id, status)")

	// Catalog browsing
	db.Exec("CREATE INDEX IF NOT EXISTS idx_courses_active_order ON courses(active, sort_order)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_shop_items_category ON shop_items(category_id, available)")

	log.Println("✅ Indexes created successfully")
}
