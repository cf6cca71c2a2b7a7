package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/khoahotran/resume-builder/pkg/auth"
)

// Creates or resets the first admin account from ADMIN_EMAIL and ADMIN_PASSWORD.
func main() {
	fmt.Println("adding admin into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || len(adminPassword) < 8 {
		log.Fatal("ADMIN_EMAIL and an ADMIN_PASSWORD of at least 8 characters are required")
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, 'Admin', $3, $4)
		ON CONFLICT (email) DO UPDATE SET password_hash = $3, role = $4, updated_at = NOW()
	`
	_, err = pool.Exec(context.Background(), query, uuid.New(), adminEmail, hash, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("cannot add admin: %v", err)
	}

	fmt.Printf("added or updated admin '%s' successfully!\n", adminEmail)
}
