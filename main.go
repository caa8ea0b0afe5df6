// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"yamdb/cmd"
	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/wire"
	"yamdb/pkg/database"
	"yamdb/pkg/mailer"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(migrateCtx, db)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema is up to date")
	}

	authorizer, err := authz.NewEnforcer(logger)
	if err != nil {
		logger.Fatal("Failed to load authorization policy", zap.Error(err))
	}
	for _, role := range []entity.UserRole{entity.RoleUser, entity.RoleModerator, entity.RoleAdmin} {
		inherited, err := authorizer.RolesFor(string(role))
		if err != nil {
			logger.Fatal("Failed to resolve role hierarchy", zap.Error(err), zap.String("role", string(role)))
		}
		logger.Info("Role loaded", zap.String("role", string(role)), zap.Strings("inherits", inherited))
	}

	tokens, err := utils.NewTokenManager(config.JWT)
	if err != nil {
		logger.Fatal("Failed to init token manager", zap.Error(err))
	}

	// Wire all dependencies
	app := wire.Wiring(wire.Deps{
		DB:         db,
		Repo:       repository.NewRepository(db, logger),
		Config:     config,
		Tokens:     tokens,
		Mailer:     mailer.NewLogMailer(config.Email.From, logger),
		Authorizer: authorizer,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
