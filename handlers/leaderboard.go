// handlers/leaderboard.go - XP leaderboard.
package handlers

import (
	"numera/database"
	"numera/middleware"

	"github.com/gofiber/fiber/v2"
)

type leaderboardEntry struct {
	Rank         int    `json:"rank"`
	StudentID    uint   `json:"student_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	AvatarURL    string `json:"avatar_url"`
	XPTotal      int    `json:"xp_total"`
	CurrentLevel int    `json:"current_level"`
	MaxStreak    int    `json:"max_streak"`
}

// GetLeaderboard returns the top students by lifetime XP (or best streak
// with sort=streak) plus the caller's own XP rank when they fall outside
// the page.
// GET /api/leaderboard?limit=20&offset=0&sort=xp
func GetLeaderboard(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	order := "resource_accounts.xp_total DESC, resource_accounts.student_id ASC"
	if c.Query("sort") == "streak" {
		order = "max_streak DESC, resource_accounts.xp_total DESC, resource_accounts.student_id ASC"
	}

	db := database.GetDB()

	var entries []leaderboardEntry
	err = db.Table("resource_accounts").
		Select(`resource_accounts.student_id, resource_accounts.xp_total,
			resource_accounts.current_level,
			students.username, students.first_name, students.avatar_url,
			COALESCE(streak_records.max_streak, 0) AS max_streak`).
		Joins("JOIN students ON students.id = resource_accounts.student_id").
		Joins("LEFT JOIN streak_records ON streak_records.student_id = resource_accounts.student_id").
		Order(order).
		Limit(limit).Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return respondError(c, err)
	}

	callerRank := 0
	for i := range entries {
		entries[i].Rank = offset + i + 1
		if entries[i].StudentID == studentID {
			callerRank = entries[i].Rank
		}
	}

	// Caller outside the page: compute their rank separately.
	if callerRank == 0 {
		var acct struct {
			XPTotal int
		}
		if err := db.Table("resource_accounts").Select("xp_total").
			Where("student_id = ?", studentID).Scan(&acct).Error; err == nil {
			var ahead int64
			db.Table("resource_accounts").
				Where("xp_total > ? OR (xp_total = ? AND student_id < ?)",
					acct.XPTotal, acct.XPTotal, studentID).
				Count(&ahead)
			callerRank = int(ahead) + 1
		}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"leaderboard": entries,
		"my_rank":     callerRank,
	})
}
