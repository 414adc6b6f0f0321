// handlers/resources.go - Balance and ledger history endpoints.
package handlers

import (
	"numera/middleware"
	"numera/models"
	"numera/services"

	"github.com/gofiber/fiber/v2"
)

// GetBalance returns the caller's account with derived level info.
func GetBalance(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	acct, err := resourceService.Balance(studentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"account": acct,
		"level":   services.LevelInfoFor(acct.XPTotal),
	})
}

// GetHistory returns recent transactions.
// GET /api/resources/history?type=XP&limit=50
func GetHistory(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	resource := c.Query("type")
	if resource != "" && resource != models.ResourceXP && resource != models.ResourceCoins {
		return c.Status(400).JSON(fiber.Map{"error": "type must be XP or COINS"})
	}

	txns, err := resourceService.History(studentID, resource, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": txns,
		"count":        len(txns),
	})
}

// CreditResources is the entry point for external completion sources
// (lesson/quiz/attendance modules run with the teacher role).
// POST /api/resources/credit
func CreditResources(c *fiber.Ctx) error {
	var req struct {
		StudentID uint                   `json:"student_id"`
		XP        int                    `json:"xp"`
		Coins     int                    `json:"coins"`
		Reason    string                 `json:"reason"`
		Metadata  map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := progressService.RecordActivity(services.ActivityEvent{
		StudentID: req.StudentID,
		XP:        req.XP,
		Coins:     req.Coins,
		Reason:    req.Reason,
		Metadata:  req.Metadata,
	}, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
