package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/config"
	"github.com/salyq-kz/declaration-service/internal/handlers"
	"github.com/salyq-kz/declaration-service/internal/middleware"
	"github.com/salyq-kz/declaration-service/internal/parsers"
	"github.com/salyq-kz/declaration-service/internal/repository"
	"github.com/salyq-kz/declaration-service/internal/seed"
	"github.com/salyq-kz/declaration-service/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:   "declaration-service",
		Short: "Form 270.00 declaration pipeline",
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("Command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}

			router := buildRouter(cfg, db)
			log.WithField("addr", cfg.HTTPAddr).Info("Starting declaration service")
			return router.Run(cfg.HTTPAddr)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			log.Info("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the reference catalog (event types, fields, rules, XML map)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			return seed.Run(context.Background(), db)
		},
	}
}

func setupLogging(cfg config.Config) {
	if cfg.Log.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repository.Open(cfg.DB.DSN())
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return nil, err
	}
	return db, nil
}

func buildRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	taxpayerRepo := repository.NewTaxpayerRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	declRepo := repository.NewDeclarationRepository(db)

	registry := parsers.NewRegistry()

	taxpayerSvc := services.NewTaxpayerService(taxpayerRepo)
	ingestionSvc := services.NewIngestionService(taxpayerRepo, sourceRepo, catalogRepo, registry)
	declarationSvc := services.NewDeclarationService(taxpayerRepo, sourceRepo, catalogRepo, declRepo)
	exportSvc := services.NewExportService(declRepo, catalogRepo)
	catalogSvc := services.NewCatalogService(catalogRepo)

	parser := middleware.NewJWTParser(cfg.JWT.Secret, cfg.JWT.Expiry)

	return handlers.NewRouter(
		parser,
		handlers.NewTaxpayerHandler(taxpayerSvc, ingestionSvc, declarationSvc),
		handlers.NewIngestionHandler(ingestionSvc),
		handlers.NewDeclarationHandler(declarationSvc, exportSvc),
		handlers.NewCatalogHandler(catalogSvc),
	)
}
