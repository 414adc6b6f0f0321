// models/shop.go - Shop catalog, inventory and purchases
package models

import "time"

type ShopCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null;size:100"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// ShopItem is a purchasable cosmetic/boost. Limited-edition items are only
// sellable inside their [AvailableFrom, AvailableUntil] window.
type ShopItem struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	CategoryID     uint          `json:"category_id" gorm:"not null;index"`
	Category       *ShopCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Name           string        `json:"name" gorm:"not null;size:255"`
	Description    string        `json:"description" gorm:"type:text"`
	Icon           string        `json:"icon" gorm:"size:100"`
	Rarity         string        `json:"rarity" gorm:"size:20;index"` // common, rare, epic, legendary
	PriceCoins     int           `json:"price_coins" gorm:"not null;default:0"`
	LevelRequired  int           `json:"level_required" gorm:"default:1"`
	Available      bool          `json:"available" gorm:"default:true;index"`
	LimitedEdition bool          `json:"limited_edition" gorm:"default:false"`
	AvailableFrom  *time.Time    `json:"available_from,omitempty"`
	AvailableUntil *time.Time    `json:"available_until,omitempty"`
	TimesPurchased int           `json:"times_purchased" gorm:"default:0"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ItemOwned is a student's inventory entry. (student_id, item_id) is unique:
// shop items are one-per-student.
type ItemOwned struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_items_owned_pair"`
	ItemID     uint      `json:"item_id" gorm:"not null;uniqueIndex:idx_items_owned_pair"`
	Item       *ShopItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Equipped   bool      `json:"equipped" gorm:"default:false"`
	Quantity   int       `json:"quantity" gorm:"default:1"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Purchase is the audit record of a completed shop transaction.
type Purchase struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AccountID  uint      `json:"account_id" gorm:"not null;index"`
	ItemID     uint      `json:"item_id" gorm:"not null;index"`
	Item       *ShopItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	CoinsSpent int       `json:"coins_spent" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ShopCategory) TableName() string {
	return "shop_categories"
}

func (ShopItem) TableName() string {
	return "shop_items"
}

func (ItemOwned) TableName() string {
	return "items_owned"
}

func (Purchase) TableName() string {
	return "purchases"
}
