// handlers/shop.go - Shop catalog, purchase and inventory endpoints.
package handlers

import (
	"numera/database"
	"numera/middleware"
	"numera/models"
	"numera/services"

	"github.com/gofiber/fiber/v2"
)

// GetShopItems lists purchasable items.
// GET /api/shop/items?category=avatars&rarity=rare
func GetShopItems(c *fiber.Ctx) error {
	items, err := shopService.ListItems(services.ItemFilters{
		CategorySlug: c.Query("category"),
		Rarity:       c.Query("rarity"),
		MaxLevel:     c.QueryInt("max_level", 0),
	}, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}

// GetShopCategories lists the category reference data.
func GetShopCategories(c *fiber.Ctx) error {
	var categories []models.ShopCategory
	if err := database.GetDB().Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
	})
}

// GetShopItem returns one item.
func GetShopItem(c *fiber.Ctx) error {
	itemID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	item, err := shopService.GetItem(uint(itemID))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// PurchaseItem buys an item with coins.
// POST /api/shop/purchase
func PurchaseItem(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		ItemID uint `json:"item_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	receipt, err := shopService.Purchase(studentID, req.ItemID, now())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"receipt": receipt,
	})
}

// GetInventory lists everything the caller owns.
func GetInventory(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	owned, err := shopService.Inventory(studentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"inventory": owned,
		"count":     len(owned),
	})
}

// EquipItem equips an owned item, replacing any equipped item of the
// same category.
// POST /api/shop/equip
func EquipItem(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		ItemID uint `json:"item_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	entry, err := shopService.Equip(studentID, req.ItemID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    entry,
	})
}

// GetPurchaseHistory lists the caller's purchases.
func GetPurchaseHistory(c *fiber.Ctx) error {
	studentID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	purchases, err := shopService.PurchaseHistory(studentID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"purchases": purchases,
	})
}
