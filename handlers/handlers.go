// handlers/handlers.go - Shared handler wiring and error mapping.
package handlers

import (
	"errors"
	"time"

	"numera/services"

	"github.com/gofiber/fiber/v2"
)

var (
	resourceService    *services.ResourceService
	streakService      *services.StreakService
	achievementService *services.AchievementService
	redemptionService  *services.RedemptionService
	shopService        *services.ShopService
	progressService    *services.ProgressService
)

// Init wires the service singletons the handler functions use.
func Init(
	resources *services.ResourceService,
	streaks *services.StreakService,
	achievements *services.AchievementService,
	redemptions *services.RedemptionService,
	shop *services.ShopService,
	progress *services.ProgressService,
) {
	resourceService = resources
	streakService = streaks
	achievementService = achievements
	redemptionService = redemptions
	shopService = shop
	progressService = progress
}

// respondError translates the service error taxonomy into HTTP responses.
// Balance and expiry failures carry their concrete numbers so clients can
// render actionable messages.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *services.InsufficientBalanceError
	var expired *services.ExpiredError

	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"code":      "insufficient_balance",
			"resource":  insufficient.Resource,
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"missing":   insufficient.Required - insufficient.Available,
		})
	case errors.As(err, &expired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error":      err.Error(),
			"code":       "expired",
			"expired_at": expired.ExpiresAt,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error(), "code": "forbidden"})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "invalid_state"})
	case errors.Is(err, services.ErrAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "already_exists"})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "validation"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func now() time.Time {
	return time.Now().UTC()
}
