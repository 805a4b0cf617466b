package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, admin, staff")
		dsn      = flag.String("dsn", "", "Database DSN (overrides DATABASE_URL env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	databaseURL := *dsn
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			log.Fatal("DATABASE_URL is required")
		}
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Session{}); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "admin":
		log.Println("Seeding admin user only...")
		if err := mainSeeder.SeedAdminOnly(); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	case "staff":
		log.Println("Seeding staff users only...")
		if err := mainSeeder.SeedStaffOnly(); err != nil {
			log.Fatalf("Failed to seed staff users: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'admin', or 'staff'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func showHelp() {
	log.Println(`
Database Seeding Tool for the Dentis API

Usage: go run seed/main.go [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, admin, staff
  -dsn string
        Database DSN (overrides DATABASE_URL environment variable)
  -help
        Show this help message

Environment Variables:
  DATABASE_URL     - Postgres connection string (required)
  SEED_ADMIN_EMAIL - Admin email (default: admin@dentis.care)
  SEED_ADMIN_PASS  - Admin password (default: random, printed once)`)
}
