// database/seed.go - Reference data seeding (achievement catalog, point
// actions, shop categories). Idempotent: rows are matched by their unique
// code/slug and only created when missing.
package database

import (
	"log"
	"numera/models"

	"gorm.io/gorm"
)

var achievementCatalog = []models.Achievement{
	{Code: "first-class", Name: "First Class", Description: "Attended your first class", Category: "starter", Rarity: "common", Icon: "🎓", TriggerType: models.TriggerAttendanceCount, TriggerThreshold: 1, XPReward: 50},
	{Code: "ten-classes", Name: "10 Classes Completed", Description: "Completed 10 classes", Category: "attendance", Rarity: "common", Icon: "🔥", TriggerType: models.TriggerAttendanceCount, TriggerThreshold: 10, XPReward: 150},
	{Code: "fifty-classes", Name: "Class Veteran", Description: "Completed 50 classes", Category: "attendance", Rarity: "rare", Icon: "🏅", TriggerType: models.TriggerAttendanceCount, TriggerThreshold: 50, XPReward: 400},
	{Code: "first-steps", Name: "First Steps", Description: "Completed your first activity", Category: "starter", Rarity: "common", Icon: "🌱", TriggerType: models.TriggerActivityCount, TriggerThreshold: 1, XPReward: 25},
	{Code: "dedicated", Name: "Dedicated", Description: "Completed 25 activities", Category: "progress", Rarity: "common", Icon: "📚", TriggerType: models.TriggerActivityCount, TriggerThreshold: 25, XPReward: 200},
	{Code: "perfect-five", Name: "Perfect Scholar", Description: "5 perfect quiz scores", Category: "mastery", Rarity: "rare", Icon: "⭐", TriggerType: models.TriggerPerfectCount, TriggerThreshold: 5, XPReward: 250},
	{Code: "streak-7", Name: "7-Day Streak", Description: "Active 7 days in a row", Category: "streak", Rarity: "rare", Icon: "🔥", TriggerType: models.TriggerStreakDays, TriggerThreshold: 7, XPReward: 180},
	{Code: "streak-30", Name: "30-Day Streak", Description: "Active 30 days in a row", Category: "streak", Rarity: "epic", Icon: "🔥🔥", TriggerType: models.TriggerStreakDays, TriggerThreshold: 30, XPReward: 500},
	{Code: "level-5", Name: "Level 5", Description: "Reached level 5", Category: "progress", Rarity: "common", Icon: "📈", TriggerType: models.TriggerLevelReached, TriggerThreshold: 5, XPReward: 100},
	{Code: "level-10", Name: "Level 10", Description: "Reached level 10", Category: "elite", Rarity: "epic", Icon: "👑", TriggerType: models.TriggerLevelReached, TriggerThreshold: 10, XPReward: 300},
	{Code: "saver-500", Name: "Coin Collector", Description: "Earned 500 coins in total", Category: "economy", Rarity: "rare", Icon: "🪙", TriggerType: models.TriggerCoinsEarned, TriggerThreshold: 500, XPReward: 150, Secret: true},
}

var pointActionCatalog = []models.PointAction{
	{Code: "participation", Name: "Class Participation", Description: "Actively participated during class", XP: 10, Coins: 5},
	{Code: "helped-classmate", Name: "Helped a Classmate", Description: "Helped another student understand a topic", XP: 15, Coins: 10},
	{Code: "extra-challenge", Name: "Extra Challenge", Description: "Solved an optional extra challenge", XP: 25, Coins: 10},
	{Code: "great-question", Name: "Great Question", Description: "Asked a question that moved the class forward", XP: 10, Coins: 5},
}

var shopCategoryCatalog = []models.ShopCategory{
	{Slug: "avatars", Name: "Avatars", SortOrder: 1},
	{Slug: "frames", Name: "Profile Frames", SortOrder: 2},
	{Slug: "boosts", Name: "Boosts", SortOrder: 3},
}

// SeedReferenceData inserts the built-in catalogs when they are missing.
func SeedReferenceData(db *gorm.DB) error {
	for _, a := range achievementCatalog {
		a.Active = true
		if err := db.Where(models.Achievement{Code: a.Code}).
			Attrs(a).FirstOrCreate(&models.Achievement{}).Error; err != nil {
			return err
		}
	}

	for _, p := range pointActionCatalog {
		p.Active = true
		if err := db.Where(models.PointAction{Code: p.Code}).
			Attrs(p).FirstOrCreate(&models.PointAction{}).Error; err != nil {
			return err
		}
	}

	for _, c := range shopCategoryCatalog {
		c.Active = true
		if err := db.Where(models.ShopCategory{Slug: c.Slug}).
			Attrs(c).FirstOrCreate(&models.ShopCategory{}).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Reference data seeded")
	return nil
}
