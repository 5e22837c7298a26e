package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"crypto_invest/internal/db"
	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"
	"crypto_invest/internal/repository"
	"crypto_invest/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Creates an admin account, or promotes an existing one, and prints a token.
func main() {
	_ = godotenv.Load()
	logger.Init("info", false)

	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Admin", "display name for a new account")
	password := flag.String("password", "", "password for a new account")
	flag.Parse()

	if *email == "" {
		logger.Fatal("-email is required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := repo.GetByEmail(ctx, *email)
	switch {
	case err == nil:
		logger.Info("user already exists", "id", u.ID)
	case errors.Is(err, domain.ErrNotFound):
		if len(*password) < 8 {
			logger.Fatal("-password of at least 8 characters is required for a new account")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hash password", "error", err)
		}
		h := string(hash)
		u = &domain.User{Name: *name, Email: *email, PasswordHash: &h, IsEmailVerified: true}
		if err := repo.Create(ctx, u); err != nil {
			logger.Fatal("create user failed", "error", err)
		}
		logger.Info("user created", "id", u.ID)
	default:
		logger.Fatal("lookup failed", "error", err)
	}

	if err := repo.SetAdmin(ctx, u.ID, true); err != nil {
		logger.Fatal("grant admin failed", "error", err)
	}

	token, err := service.NewJWTManager(secret, 0).Generate(u.ID, true)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	logger.Info("admin ready", "id", u.ID, "email", u.Email, "token", token)
}
