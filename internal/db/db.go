package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.ProviderProfile{},
		&models.Category{},
		&models.Job{},
		&models.Message{},
		&models.Rating{},
		&models.EarningsEntry{},
	)
}

// SeedCategories fills the taxonomy once; after the first boot it is
// static reference data.
func SeedCategories(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []models.Category{
		{Name: "Plumbing", Description: "Pipes, taps, drainage and water systems", Icon: "wrench"},
		{Name: "Electrical", Description: "Wiring, sockets, lighting and appliances", Icon: "zap"},
		{Name: "Carpentry", Description: "Furniture, doors, shelves and woodwork", Icon: "hammer"},
		{Name: "Painting", Description: "Interior and exterior painting", Icon: "paintbrush"},
		{Name: "Cleaning", Description: "Home and office cleaning", Icon: "sparkles"},
		{Name: "Gardening", Description: "Landscaping and garden maintenance", Icon: "leaf"},
		{Name: "Appliance Repair", Description: "Fridges, washers, cookers and more", Icon: "settings"},
		{Name: "Moving", Description: "Packing and transport help", Icon: "truck"},
	}

	if err := gdb.Create(&seed).Error; err != nil {
		return err
	}
	log.Printf("Seeded %d categories", len(seed))
	return nil
}
