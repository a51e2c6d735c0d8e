package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kueapp/backend/internal/config"
	"github.com/kueapp/backend/internal/database"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@kueapp.local"
		log.Printf("Using default admin email: %s", email)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Printf("WARNING: Using default admin password. Set ADMIN_PASSWORD env var in production!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// Pre-verified admin account; re-running updates the password
	_, err = db.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, roles, email_verified_at)
		VALUES ($1, $2, $3, 'Admin', $4, NOW())
		ON CONFLICT (email)
		DO UPDATE SET password_hash = EXCLUDED.password_hash, roles = EXCLUDED.roles
	`, uuid.New().String(), email, string(hash), pq.StringArray{"admin", "staff"})
	if err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Email: %s", email)
	log.Println("\nYou can now login at /api/v1/auth/login")
}
