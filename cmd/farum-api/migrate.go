package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sqlstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/sql"
	"github.com/PabloGalante/farum-wellness/internal/config"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.Init(cfg.Log.Level)

			if cfg.Storage.Backend != "postgres" && cfg.Storage.Backend != "sqlite" {
				return fmt.Errorf("migrate needs a SQL storage backend, got %q", cfg.Storage.Backend)
			}

			db, err := sqlstore.Open(sqlConfig(cfg.Storage))
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err == nil {
				defer sqlDB.Close()
			}

			if err := sqlstore.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			observability.Logger().Info("schema migrated", "backend", cfg.Storage.Backend)
			return nil
		},
	}
}

func sqlConfig(c config.StorageConfig) sqlstore.Config {
	return sqlstore.Config{
		Driver:          c.Backend,
		DSN:             c.DSN,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogQueries:      c.LogQueries,
	}
}
