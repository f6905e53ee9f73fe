package config

import (
	"log"

	"citycare-queue/internal/adapters/persistence/models"
	"citycare-queue/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedCounterStaff(); err != nil {
		log.Printf("⚠️ Staff seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@citycare.example.org",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedCounterStaff seeds one staff and one doctor account for development
func (s *Seeder) seedCounterStaff() error {
	accounts := []struct {
		username string
		email    string
		role     string
	}{
		{"reception", "reception@citycare.example.org", models.RoleStaff},
		{"doctor1", "doctor1@citycare.example.org", models.RoleDoctor},
	}

	for _, a := range accounts {
		var count int64
		s.db.Model(&models.User{}).Where("username = ?", a.username).Count(&count)
		if count > 0 {
			continue
		}

		hashedPassword, err := password.Hash("changeme123")
		if err != nil {
			return err
		}

		user := &models.User{
			Username: a.username,
			Email:    a.email,
			Password: hashedPassword,
			Role:     a.role,
			IsActive: true,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("✅ %s user created: %s", a.role, a.username)
	}
	return nil
}
