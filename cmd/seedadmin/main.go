// seedadmin creates the administrator account, or promotes an existing one.
// Usage: go run ./cmd/seedadmin -email admin@example.com -password secret
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"inventario/internal/config"
	"inventario/internal/database"
	"inventario/internal/logger"
	"inventario/internal/repository"
	"inventario/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	name := flag.String("name", envOr("ADMIN_NAME", "Administrator"), "display name")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "administrator email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "administrator password")
	flag.Parse()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or ADMIN_EMAIL / ADMIN_PASSWORD)")
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dbService.Close()

	if err := database.RunMigrations(dbService.DB(), cfg.Database.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(repository.NewUserRepository(dbService.DB()))
	admin, created, err := users.EnsureAdmin(ctx, *name, *email, *password)
	if err != nil {
		log.Fatal("Failed to ensure administrator", zap.Error(err))
	}

	log.Info("Administrator ready",
		zap.Int64("user_id", admin.ID),
		zap.String("email", admin.Email),
		zap.Bool("created", created),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
