package seeders

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/shared"
)

// UserSeeder handles seeding clinic user accounts
type UserSeeder struct {
	db *gorm.DB
}

func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{db: db}
}

// SeedAdmin creates the initial admin account if none exists. The password
// comes from SEED_ADMIN_PASS or is generated and printed exactly once.
func (s *UserSeeder) SeedAdmin() error {
	var existing model.User
	if err := s.db.Where("role = ?", shared.RoleAdmin).First(&existing).Error; err == nil {
		log.Println("Admin user already exists, skipping admin seeding")
		return nil
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@dentis.care"
	}

	password := os.Getenv("SEED_ADMIN_PASS")
	generated := false
	if password == "" {
		password = randomPassword()
		generated = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return err
	}

	admin := model.User{
		ID:            newUserID(),
		ClerkID:       "seed_admin",
		Email:         email,
		Name:          "Administrador",
		Role:          shared.RoleAdmin,
		PasswordHash:  string(hash),
		EmailVerified: true,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		log.Printf("Error creating admin user: %v", err)
		return err
	}

	if generated {
		log.Printf("Created admin user %s with generated password: %s", admin.Email, password)
	} else {
		log.Printf("Created admin user: %s", admin.Email)
	}
	return nil
}

// SeedStaff creates one demo account per staff role for local development.
// Existing emails are skipped, so the seeder can be rerun safely.
func (s *UserSeeder) SeedStaff() error {
	staff := []model.User{
		{
			ClerkID: "seed_dentist",
			Email:   "dentista@dentis.care",
			Name:    "Dra. Ana Souza",
			Role:    shared.RoleDentist,
		},
		{
			ClerkID: "seed_receptionist",
			Email:   "recepcao@dentis.care",
			Name:    "Carlos Lima",
			Role:    shared.RoleReceptionist,
		},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("dentis-dev-123"), 10)
	if err != nil {
		return err
	}

	for _, user := range staff {
		var existing model.User
		if err := s.db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			log.Printf("User %s already exists, skipping", user.Email)
			continue
		}

		user.ID = newUserID()
		user.PasswordHash = string(hash)
		user.EmailVerified = true

		if err := s.db.Create(&user).Error; err != nil {
			log.Printf("Error creating user %s: %v", user.Email, err)
			return err
		}
		log.Printf("Created %s user: %s", user.Role, user.Email)
	}

	log.Println("Staff seeding completed successfully")
	return nil
}

func newUserID() string {
	id, _ := uuid.NewV7()
	return "usr_" + id.String()
}

func randomPassword() string {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
