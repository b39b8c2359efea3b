package migrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/config"
	"github.com/gymchain/gymchain-api/internal/database"
	"github.com/gymchain/gymchain-api/internal/tools/common"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newSubcommand(opts, "up", "Apply schema migrations", upAction),
		newSubcommand(opts, "status", "Report pending schema changes", statusAction),
		newSubcommand(opts, "plan", "Show migration plan (dry-run)", planAction),
	)
	return cmd
}

type dbAction func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error)

func newSubcommand(opts *options, use, short string, action dbAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.RunAction("migrate", use, opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				return withDB(ctx, opts.envFile, action)
			})
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func upAction(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	steps, err := database.Plan(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	details := []string{"schema migration applied", "driver: " + cfg.DatabaseDriver}
	if len(steps) == 0 {
		return append(details, "schema already up to date"), nil
	}
	return append(details, steps...), nil
}

func statusAction(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	steps, err := database.Plan(ctx, db)
	if err != nil {
		return nil, err
	}
	details := []string{"database reachable", "driver: " + cfg.DatabaseDriver}
	if len(steps) == 0 {
		return append(details, "migrations: up to date"), nil
	}
	return append(details, fmt.Sprintf("migrations: %d pending", len(steps))), nil
}

func planAction(ctx context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	steps, err := database.Plan(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		steps = []string{"nothing to apply"}
	}
	return append(steps, "no mutation executed in plan mode"), nil
}

func withDB(ctx context.Context, envFile string, action dbAction) ([]string, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	return action(ctx, cfg, db)
}
