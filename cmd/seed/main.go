package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/haritha-dev/TherapyAppBack/internal/database"
	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
	"github.com/haritha-dev/TherapyAppBack/pkg/utils"
)

// Demo accounts for local development. Re-running the seeder is safe: users
// are looked up by email first and profiles are upserted.
type seedAccount struct {
	email    string
	name     string
	password string
	role     string
	profile  *models.TherapistProfile
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, dbUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewTherapistProfileRepository(db)

	fee := 85.0
	bio := "Licensed CBT therapist, 8 years in practice."
	fullName := "Dr. Asha Mehta"
	verified := true
	years := 8
	specializations := []string{"anxiety", "depression", "cbt"}

	accounts := []seedAccount{
		{email: "admin@example.com", name: "Admin", password: "admin12345", role: models.RoleAdmin},
		{email: "ann@example.com", name: "Ann", password: "password123", role: models.RoleUser},
		{
			email:    "asha.mehta@example.com",
			name:     "Dr. Asha Mehta",
			password: "password123",
			role:     models.RoleTherapist,
			profile: &models.TherapistProfile{
				FullName:        &fullName,
				Bio:             &bio,
				Specializations: &specializations,
				ExperienceYears: &years,
				SessionFee:      &fee,
				IsVerified:      &verified,
			},
		},
	}

	for _, account := range accounts {
		user, err := userRepo.GetByEmail(ctx, account.email)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Fatalf("Failed to look up %s: %v", account.email, err)
		}
		if err == nil {
			log.Printf("%s already exists (id %d), skipping", account.email, user.ID)
		} else {
			hash, err := utils.HashPassword(account.password)
			if err != nil {
				log.Fatalf("Failed to hash password for %s: %v", account.email, err)
			}
			user = &models.User{
				Email:        account.email,
				Name:         account.name,
				PasswordHash: hash,
				Role:         account.role,
			}
			if err := userRepo.CreateUser(ctx, user); err != nil {
				log.Fatalf("Failed to create %s: %v", account.email, err)
			}
			log.Printf("Created %s %s (id %d)", account.role, account.email, user.ID)
		}

		if account.profile != nil {
			account.profile.UserID = user.ID
			if err := profileRepo.Upsert(ctx, account.profile); err != nil {
				log.Fatalf("Failed to upsert profile for %s: %v", account.email, err)
			}
			log.Printf("Upserted therapist profile for %s", account.email)
		}
	}

	log.Println("Seed complete")
}
