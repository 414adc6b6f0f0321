// services/shop.go - Shop purchases and inventory.
//
// A purchase is one atomic unit: coin debit, purchase record, inventory
// grant and the item's sale counter either all commit or none do.
package services

import (
	"errors"
	"fmt"
	"time"

	"numera/models"

	"gorm.io/gorm"
)

type ShopService struct {
	db        *gorm.DB
	resources *ResourceService
}

func NewShopService(db *gorm.DB, resources *ResourceService) *ShopService {
	return &ShopService{db: db, resources: resources}
}

// ItemFilters narrows the catalog listing.
type ItemFilters struct {
	CategorySlug string
	Rarity       string
	MaxLevel     int
}

// ListItems returns purchasable items, honoring limited-edition windows.
func (s *ShopService) ListItems(f ItemFilters, now time.Time) ([]models.ShopItem, error) {
	q := s.db.Model(&models.ShopItem{}).Where("available = ?", true).
		Where("limited_edition = ? OR ((available_from IS NULL OR available_from <= ?) AND (available_until IS NULL OR available_until >= ?))",
			false, now, now).
		Preload("Category")

	if f.CategorySlug != "" {
		q = q.Joins("JOIN shop_categories ON shop_categories.id = shop_items.category_id").
			Where("shop_categories.slug = ?", f.CategorySlug)
	}
	if f.Rarity != "" {
		q = q.Where("rarity = ?", f.Rarity)
	}
	if f.MaxLevel > 0 {
		q = q.Where("level_required <= ?", f.MaxLevel)
	}

	var items []models.ShopItem
	err := q.Order("category_id, price_coins").Find(&items).Error
	return items, err
}

// GetItem returns a single catalog item.
func (s *ShopService) GetItem(itemID uint) (*models.ShopItem, error) {
	var item models.ShopItem
	err := s.db.Preload("Category").First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("shop item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// PurchaseReceipt is the result of a completed purchase.
type PurchaseReceipt struct {
	Purchase models.Purchase        `json:"purchase"`
	Item     models.ShopItem        `json:"item"`
	Owned    models.ItemOwned       `json:"owned"`
	Account  models.ResourceAccount `json:"account"`
}

// Purchase buys an item for a student: availability window, ownership and
// level checks up front, then debit + purchase row + inventory row + sale
// counter as one transaction.
func (s *ShopService) Purchase(studentID, itemID uint, now time.Time) (*PurchaseReceipt, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, validationError("item %q is not available", item.Name)
	}
	if item.LimitedEdition {
		if item.AvailableFrom != nil && now.Before(*item.AvailableFrom) {
			return nil, validationError("item %q is not on sale yet", item.Name)
		}
		if item.AvailableUntil != nil && now.After(*item.AvailableUntil) {
			return nil, validationError("item %q is no longer on sale", item.Name)
		}
	}

	var owned int64
	if err := s.db.Model(&models.ItemOwned{}).
		Where("student_id = ? AND item_id = ?", studentID, itemID).
		Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned > 0 {
		return nil, fmt.Errorf("item already owned: %w", ErrAlreadyExists)
	}

	acct, err := s.resources.Balance(studentID)
	if err != nil {
		return nil, err
	}
	if level := Level(acct.XPTotal); level < item.LevelRequired {
		return nil, validationError("item requires level %d, student is level %d",
			item.LevelRequired, level)
	}

	receipt := &PurchaseReceipt{Item: *item}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		change, err := s.resources.debitTx(tx, studentID, models.ResourceCoins, item.PriceCoins,
			ReasonShopPurchase, map[string]interface{}{
				"item_id":   item.ID,
				"item_name": item.Name,
			})
		if err != nil {
			return err
		}
		receipt.Account = change.Account

		receipt.Purchase = models.Purchase{
			AccountID:  change.Account.ID,
			ItemID:     item.ID,
			CoinsSpent: item.PriceCoins,
			CreatedAt:  now,
		}
		if err := tx.Create(&receipt.Purchase).Error; err != nil {
			return err
		}

		receipt.Owned = models.ItemOwned{
			StudentID:  studentID,
			ItemID:     item.ID,
			Quantity:   1,
			AcquiredAt: now,
		}
		if err := tx.Create(&receipt.Owned).Error; err != nil {
			return err
		}

		return tx.Model(&models.ShopItem{}).Where("id = ?", item.ID).
			UpdateColumn("times_purchased", gorm.Expr("times_purchased + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Inventory lists everything a student owns.
func (s *ShopService) Inventory(studentID uint) ([]models.ItemOwned, error) {
	var owned []models.ItemOwned
	err := s.db.Where("student_id = ?", studentID).
		Preload("Item").Preload("Item.Category").
		Order("acquired_at DESC").Find(&owned).Error
	return owned, err
}

// Equip marks an owned item equipped, unequipping any other item of the
// same category first (one equipped item per category).
func (s *ShopService) Equip(studentID, itemID uint) (*models.ItemOwned, error) {
	var entry models.ItemOwned
	err := s.db.Where("student_id = ? AND item_id = ?", studentID, itemID).
		Preload("Item").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("inventory item")
	}
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ItemOwned{}).
			Where("student_id = ? AND equipped = ? AND item_id IN (?)",
				studentID, true,
				tx.Model(&models.ShopItem{}).Select("id").
					Where("category_id = ?", entry.Item.CategoryID)).
			UpdateColumn("equipped", false).Error; err != nil {
			return err
		}
		return tx.Model(&entry).UpdateColumn("equipped", true).Error
	})
	if err != nil {
		return nil, err
	}
	entry.Equipped = true
	return &entry, nil
}

// PurchaseHistory lists a student's purchases, newest first.
func (s *ShopService) PurchaseHistory(studentID uint) ([]models.Purchase, error) {
	acct, err := s.resources.Balance(studentID)
	if err != nil {
		return nil, err
	}
	if acct.ID == 0 {
		return []models.Purchase{}, nil
	}

	var purchases []models.Purchase
	err = s.db.Where("account_id = ?", acct.ID).
		Preload("Item").
		Order("created_at DESC").Find(&purchases).Error
	return purchases, err
}
