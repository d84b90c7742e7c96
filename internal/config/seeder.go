package config

import (
	"context"
	"log"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	seed  SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, seed SeedConfig) *Seeder {
	return &Seeder{users: repositories.NewUserRepository(db), seed: seed}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedSystemAdmin(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedSystemAdmin creates the first System_Admin from SEED_ADMIN_* when no
// admin exists yet; there is no built-in default password
func (s *Seeder) seedSystemAdmin() error {
	ctx := context.Background()
	count, err := s.users.CountByRole(ctx, domain.RoleSystemAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.seed.AdminUsername == "" || s.seed.AdminEmail == "" || s.seed.AdminPassword == "" {
		log.Println("⚠️ No System_Admin exists and SEED_ADMIN_* is incomplete")
		log.Println("   Set SEED_ADMIN_USERNAME, SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD to bootstrap one")
		return nil
	}
	if !password.ValidatePassword(s.seed.AdminPassword) {
		log.Println("⚠️ SEED_ADMIN_PASSWORD must be 8-72 characters, admin not seeded")
		return nil
	}

	hashedPassword, err := password.Hash(s.seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:  s.seed.AdminUsername,
		Email:     s.seed.AdminEmail,
		Password:  hashedPassword,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      domain.RoleSystemAdmin,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ System_Admin created: %s", admin.Username)
	return nil
}
