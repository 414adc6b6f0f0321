// handlers/achievements.go - Achievement catalog and unlock endpoints.
package handlers

import (
	"numera/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetAchievements returns the full catalog annotated with the caller's
// unlock state. Secret achievements are hidden until unlocked.
func GetAchievements(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	entries, err := achievementService.Catalog(studentID)
	if err != nil {
		return respondError(c, err)
	}

	unlocked := 0
	for _, e := range entries {
		if e.Unlocked {
			unlocked++
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": entries,
		"total":        len(entries),
		"unlocked":     unlocked,
	})
}

// MarkAchievementsSeen acknowledges unlock notifications.
// POST /api/achievements/seen
func MarkAchievementsSeen(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	if err := achievementService.MarkSeen(studentID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
