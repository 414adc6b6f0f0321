// cmd/catalog-importer/main.go
//
// Bulk-loads catalog reference data (courses, shop categories, shop items,
// point actions) from a JSON file into the database. Matching is by code or
// slug, so re-running the importer updates prices and availability without
// duplicating rows.
//
// Usage: catalog-importer [catalog.json]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"numera/database"
	"numera/models"

	"github.com/joho/godotenv"
)

type catalogFile struct {
	Courses []struct {
		Code          string  `json:"code"`
		Title         string  `json:"title"`
		Description   string  `json:"description"`
		Category      string  `json:"category"`
		PriceCoins    int     `json:"price_coins"`
		PriceUSD      float64 `json:"price_usd"`
		LevelRequired int     `json:"level_required"`
		Featured      bool    `json:"featured"`
		New           bool    `json:"new"`
		SortOrder     int     `json:"sort_order"`
	} `json:"courses"`

	ShopCategories []struct {
		Slug      string `json:"slug"`
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order"`
	} `json:"shop_categories"`

	ShopItems []struct {
		CategorySlug   string     `json:"category_slug"`
		Name           string     `json:"name"`
		Description    string     `json:"description"`
		Icon           string     `json:"icon"`
		Rarity         string     `json:"rarity"`
		PriceCoins     int        `json:"price_coins"`
		LevelRequired  int        `json:"level_required"`
		LimitedEdition bool       `json:"limited_edition"`
		AvailableFrom  *time.Time `json:"available_from"`
		AvailableUntil *time.Time `json:"available_until"`
	} `json:"shop_items"`

	PointActions []struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
		XP          int    `json:"xp"`
		Coins       int    `json:"coins"`
	} `json:"point_actions"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	path := "./catalog.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("Failed to read catalog file:", err)
	}

	var catalog catalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		log.Fatal("Failed to parse catalog JSON:", err)
	}

	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	fmt.Printf("Importing %d courses, %d shop categories, %d shop items, %d point actions\n\n",
		len(catalog.Courses), len(catalog.ShopCategories), len(catalog.ShopItems), len(catalog.PointActions))

	for _, c := range catalog.Courses {
		course := models.Course{
			Code:          c.Code,
			Title:         c.Title,
			Description:   c.Description,
			Category:      c.Category,
			PriceCoins:    c.PriceCoins,
			PriceUSD:      c.PriceUSD,
			LevelRequired: c.LevelRequired,
			Active:        true,
			Featured:      c.Featured,
			Fresh:         c.New,
			SortOrder:     c.SortOrder,
		}
		if err := db.Where(models.Course{Code: c.Code}).Assign(course).
			FirstOrCreate(&course).Error; err != nil {
			log.Fatal("Failed to import course ", c.Code, ": ", err)
		}
		fmt.Printf("  course %-24s %5d coins, level %d+\n", c.Code, c.PriceCoins, c.LevelRequired)
	}

	categoryIDs := make(map[string]uint, len(catalog.ShopCategories))
	for _, sc := range catalog.ShopCategories {
		cat := models.ShopCategory{
			Slug:      sc.Slug,
			Name:      sc.Name,
			SortOrder: sc.SortOrder,
			Active:    true,
		}
		if err := db.Where(models.ShopCategory{Slug: sc.Slug}).Assign(cat).
			FirstOrCreate(&cat).Error; err != nil {
			log.Fatal("Failed to import shop category ", sc.Slug, ": ", err)
		}
		categoryIDs[sc.Slug] = cat.ID
	}

	for _, si := range catalog.ShopItems {
		categoryID, ok := categoryIDs[si.CategorySlug]
		if !ok {
			var cat models.ShopCategory
			if err := db.Where("slug = ?", si.CategorySlug).First(&cat).Error; err != nil {
				log.Fatal("Unknown shop category ", si.CategorySlug, " for item ", si.Name)
			}
			categoryID = cat.ID
			categoryIDs[si.CategorySlug] = cat.ID
		}

		item := models.ShopItem{
			CategoryID:     categoryID,
			Name:           si.Name,
			Description:    si.Description,
			Icon:           si.Icon,
			Rarity:         si.Rarity,
			PriceCoins:     si.PriceCoins,
			LevelRequired:  si.LevelRequired,
			Available:      true,
			LimitedEdition: si.LimitedEdition,
			AvailableFrom:  si.AvailableFrom,
			AvailableUntil: si.AvailableUntil,
		}
		if err := db.Where(models.ShopItem{CategoryID: categoryID, Name: si.Name}).
			Assign(item).FirstOrCreate(&item).Error; err != nil {
			log.Fatal("Failed to import shop item ", si.Name, ": ", err)
		}
		fmt.Printf("  item   %-24s %5d coins (%s)\n", si.Name, si.PriceCoins, si.Rarity)
	}

	for _, pa := range catalog.PointActions {
		action := models.PointAction{
			Code:        pa.Code,
			Name:        pa.Name,
			Description: pa.Description,
			XP:          pa.XP,
			Coins:       pa.Coins,
			Active:      true,
		}
		if err := db.Where(models.PointAction{Code: pa.Code}).Assign(action).
			FirstOrCreate(&action).Error; err != nil {
			log.Fatal("Failed to import point action ", pa.Code, ": ", err)
		}
	}

	fmt.Println("\n✅ Catalog import complete")
}
