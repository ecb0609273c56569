package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/db"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

// Seeds a development database with an admin account, a small catalog
// and a storefront banner. Safe to run repeatedly.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	gdb := db.GetDB()

	if err := seedAdmin(gdb); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}
	if err := seedCatalog(gdb); err != nil {
		log.Fatal("Failed to seed catalog:", err)
	}
	if err := seedBanner(gdb); err != nil {
		log.Fatal("Failed to seed banner:", err)
	}

	fmt.Println("Seed completed successfully!")
}

func seedAdmin(gdb *gorm.DB) error {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@shopstack.local"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	var count int64
	if err := gdb.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("Admin user %s already exists, skipping\n", email)
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         model.RoleAdmin,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return err
	}

	fmt.Printf("Created admin user %s\n", email)
	return nil
}

type seedProduct struct {
	name        string
	description string
	price       string
	stock       int
}

func seedCatalog(gdb *gorm.DB) error {
	catalog := map[string][]seedProduct{
		"Electronics": {
			{"Wireless Earbuds", "Bluetooth 5.3, 24h battery with case", "2499.00", 50},
			{"USB-C Charger 65W", "GaN fast charger, dual port", "1799.00", 80},
			{"Mechanical Keyboard", "Hot-swappable, RGB, brown switches", "4999.00", 25},
		},
		"Home & Kitchen": {
			{"Ceramic Mug Set", "Set of 4, 350ml, dishwasher safe", "899.00", 120},
			{"Cast Iron Skillet", "Pre-seasoned, 26cm", "1599.00", 40},
		},
		"Books": {
			{"The Pragmatic Programmer", "20th anniversary edition, hardcover", "1250.00", 60},
		},
	}

	for categoryName, products := range catalog {
		category := model.Category{
			Name: categoryName,
			Slug: util.Slugify(categoryName),
		}
		if err := gdb.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return err
		}

		for _, p := range products {
			price, err := decimal.NewFromString(p.price)
			if err != nil {
				return fmt.Errorf("invalid price for %s: %w", p.name, err)
			}

			product := model.Product{
				Name:          p.name,
				Slug:          util.Slugify(p.name),
				Description:   p.description,
				Price:         price,
				CategoryID:    category.ID,
				StockQuantity: p.stock,
				IsActive:      true,
			}
			if err := gdb.Where("slug = ?", product.Slug).FirstOrCreate(&product).Error; err != nil {
				return err
			}
		}

		fmt.Printf("Seeded category %s with %d products\n", categoryName, len(products))
	}

	return nil
}

func seedBanner(gdb *gorm.DB) error {
	banner := model.Banner{
		Title:    "Free shipping on orders over ₹2000",
		ImageURL: "https://placehold.co/1200x300",
		LinkURL:  "/products",
		Position: 1,
		IsActive: true,
	}
	if err := gdb.Where("title = ?", banner.Title).FirstOrCreate(&banner).Error; err != nil {
		return err
	}

	fmt.Println("Seeded storefront banner")
	return nil
}
