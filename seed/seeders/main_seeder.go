package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder orchestrates all database seeding operations
type MainSeeder struct {
	userSeeder *UserSeeder
}

// NewMainSeeder creates a new main seeder with all sub-seeders
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{
		userSeeder: NewUserSeeder(db),
	}
}

// SeedAll runs all seeders in order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.userSeeder.SeedAdmin(); err != nil {
		return err
	}

	if err := s.userSeeder.SeedStaff(); err != nil {
		return err
	}

	log.Println("Database seeding completed")
	return nil
}

func (s *MainSeeder) SeedAdminOnly() error {
	return s.userSeeder.SeedAdmin()
}

func (s *MainSeeder) SeedStaffOnly() error {
	return s.userSeeder.SeedStaff()
}
