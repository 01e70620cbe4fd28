package main

import (
	"fmt"

	"github.com/anonto42/jackpot/backend/internal/repositories"
	"github.com/anonto42/jackpot/backend/pkg/config"
	"github.com/anonto42/jackpot/backend/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the engagement tables, keys and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Env, cfg.LogLevel)

			db, err := config.InitDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.CloseDB()

			if db.Postgres != nil {
				if err := repositories.Migrate(db.Postgres); err != nil {
					return fmt.Errorf("failed to auto migrate models: %w", err)
				}
				log.Info().Msg("PostgreSQL migrations completed")
			}
			if db.Mongo != nil {
				posts := repositories.NewMongoPostRepository(db.MongoDatabase(), repositories.DefaultLimits())
				if err := posts.EnsureIndexes(cmd.Context()); err != nil {
					return err
				}
				log.Info().Msg("MongoDB post indexes ensured")
			}
			return nil
		},
	}
}
