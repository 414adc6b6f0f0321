// handlers/redemptions.go - Course catalog and redemption workflow endpoints.
package handlers

import (
	"numera/database"
	"numera/middleware"
	"numera/models"

	"github.com/gofiber/fiber/v2"
)

// ListCourses returns the active course catalog.
// GET /api/courses?featured=true
func ListCourses(c *fiber.Ctx) error {
	db := database.GetDB()

	query := db.Where("active = ?", true)
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}

	var courses []models.Course
	if err := query.Order("sort_order ASC, id ASC").Find(&courses).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse returns one course by ID.
func GetCourse(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var course models.Course
	if err := database.GetDB().First(&course, courseID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Course not found"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"course":  course,
	})
}

// RequestRedemption opens a redemption request for the caller's tutor
// to decide on. Coins are only quoted here, not debited.
// POST /api/redemptions
func RequestRedemption(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		CourseID uint `json:"course_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	redemption, err := redemptionService.Request(studentID, req.CourseID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"redemption": redemption,
	})
}

// ApproveRedemption decides a pending request, debits the quoted coins
// and grants the course. Tutor only.
// POST /api/redemptions/:id/approve
func ApproveRedemption(c *fiber.Ctx) error {
	tutorID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	redemptionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid redemption ID"})
	}

	var req struct {
		PaymentOption string `json:"payment_option"`
		Message       string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	redemption, err := redemptionService.Approve(uint(redemptionID), tutorID, req.PaymentOption, req.Message, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"redemption": redemption,
	})
}

// RejectRedemption declines a pending request without moving coins.
// POST /api/redemptions/:id/reject
func RejectRedemption(c *fiber.Ctx) error {
	tutorID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	redemptionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid redemption ID"})
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	redemption, err := redemptionService.Reject(uint(redemptionID), tutorID, req.Message, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"redemption": redemption,
	})
}

// GetPendingRedemptions lists requests awaiting the tutor's decision.
func GetPendingRedemptions(c *fiber.Ctx) error {
	tutorID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	redemptions, err := redemptionService.PendingForTutor(tutorID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"redemptions": redemptions,
		"count":       len(redemptions),
	})
}

// GetTutorRedemptionHistory lists the tutor's decided requests.
func GetTutorRedemptionHistory(c *fiber.Ctx) error {
	tutorID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	redemptions, err := redemptionService.HistoryForTutor(tutorID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"redemptions": redemptions,
	})
}

// GetMyRedemptions lists the caller's own requests, newest first.
func GetMyRedemptions(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	redemptions, err := redemptionService.ForStudent(studentID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"redemptions": redemptions,
	})
}

// GetMyCourses lists the caller's granted courses with progress.
func GetMyCourses(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	grants, err := redemptionService.GrantsForStudent(studentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"courses": grants,
	})
}

// UpdateCourseProgress records progress on a granted course.
// PUT /api/courses/:id/progress
func UpdateCourseProgress(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var req struct {
		ProgressPercent int `json:"progress_percent"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	grant, err := redemptionService.UpdateCourseProgress(studentID, uint(courseID), req.ProgressPercent, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"grant":   grant,
	})
}
