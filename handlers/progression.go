// handlers/progression.go - Dashboard, streak and teacher-award endpoints.
package handlers

import (
	"numera/database"
	"numera/middleware"
	"numera/models"
	"numera/services"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard assembles the student's progress view: balances, level,
// streak (reconciled so an expired streak shows as 0), recent ledger
// entries and unseen achievement count.
func GetDashboard(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	acct, err := resourceService.Balance(studentID)
	if err != nil {
		return respondError(c, err)
	}

	streak, err := streakService.Reconcile(studentID, now())
	if err != nil {
		return respondError(c, err)
	}

	recent, err := resourceService.History(studentID, "", 10)
	if err != nil {
		return respondError(c, err)
	}

	db := database.GetDB()
	var unlockedCount, unseenCount int64
	db.Model(&models.AchievementUnlock{}).Where("student_id = ?", studentID).Count(&unlockedCount)
	db.Model(&models.AchievementUnlock{}).Where("student_id = ? AND seen = ?", studentID, false).Count(&unseenCount)

	return c.JSON(fiber.Map{
		"success":             true,
		"account":             acct,
		"level":               services.LevelInfoFor(acct.XPTotal),
		"streak":              streak,
		"recent_transactions": recent,
		"achievements_total":  unlockedCount,
		"achievements_unseen": unseenCount,
	})
}

// GetStreak returns the reconciled streak record.
func GetStreak(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	streak, err := streakService.Reconcile(studentID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"streak":  streak,
	})
}

// ListPointActions returns the award catalog for teacher UIs.
func ListPointActions(c *fiber.Ctx) error {
	actions, err := progressService.ListActions()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"actions": actions,
	})
}

// AwardPoints lets a teacher award a catalogued action to a student.
// POST /api/progress/award
func AwardPoints(c *fiber.Ctx) error {
	teacherID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		StudentID  uint   `json:"student_id"`
		ActionCode string `json:"action_code"`
		Context    string `json:"context"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := progressService.AwardAction(teacherID, req.StudentID, req.ActionCode, req.Context, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

// GetAwardHistory lists the manual awards the caller has received.
func GetAwardHistory(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	awards, err := progressService.AwardHistory(studentID, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"awards":  awards,
	})
}
