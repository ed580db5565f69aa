package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"expensetracker/internal/config"
	"expensetracker/internal/database"
	"expensetracker/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the PostgreSQL schema",
	Long:          `Applies, rolls back and inspects the embedded SQL migrations against the configured PostgreSQL database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration up failed: %w", err)
			}
			logger.Get().Info("Migrations applied successfully")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [N]",
	Short: "Roll back the last N migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = n
		}
		return withMigrator(func(m *migrate.Migrate) error {
			if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration down failed: %w", err)
			}
			logger.Get().Infof("Rolled back %d migration(s)", steps)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				logger.Get().Info("No migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	m, err := database.NewMigrator(database.PostgresURL(cfg))
	if err != nil {
		return err
	}
	defer database.CloseMigrator(m)

	return fn(m)
}
