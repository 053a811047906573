package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gostats/adapters/api"
	"gostats/adapters/postgres"
	"gostats/app"
	"gostats/internal"
	"gostats/internal/config"
	"gostats/internal/migration"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	gin.SetMode(cfg.Server.GinMode)

	opts := app.ServiceOptions{
		Defaults:     cfg.Params(),
		FacetWorkers: cfg.Stats.FacetWorkers,
		Logger:       logger,
	}

	if cfg.PersistenceEnabled() {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.NewRunner().Run(context.Background(), db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		opts.Repository = postgres.NewStatsTableRepository(db)
		logger.Info("Stats tables are persisted to postgres")
	} else {
		logger.Warn("DATABASE_URL not set, stats tables will not be persisted")
	}

	router := api.NewRouter(app.NewStatsService(opts), logger)

	logger.Info("Starting API server on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
