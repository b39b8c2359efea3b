package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/config"
	"github.com/gymchain/gymchain-api/internal/database"
	"github.com/gymchain/gymchain-api/internal/repository"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
	"github.com/gymchain/gymchain-api/internal/tools/common"
)

type options struct {
	envFile       string
	adminName     string
	adminEmail    string
	adminPassword string
	demoWorkout   bool
	timeout       time.Duration
	ci            bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.adminName, "admin-name", "Gym Admin", "bootstrap admin display name")
	cmd.PersistentFlags().StringVar(&opts.adminEmail, "admin-email", "", "override BOOTSTRAP_ADMIN_EMAIL")
	cmd.PersistentFlags().StringVar(&opts.adminPassword, "admin-password", "", "override BOOTSTRAP_ADMIN_PASSWORD")
	cmd.PersistentFlags().BoolVar(&opts.demoWorkout, "demo-workout", true, "also log a demo workout for the admin")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts), newDryRunCommand(opts), newTokenCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Create the bootstrap admin and demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.RunAction("seed", "run", opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				cfg, err := loadConfig(opts.envFile)
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
				if err := database.Migrate(ctx, db); err != nil {
					return nil, err
				}
				return apply(ctx, db, opts.input(cfg))
			})
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := common.RunAction("seed", "dry-run", opts.ci, opts.timeout, func(ctx context.Context) ([]string, error) {
				cfg, err := loadConfig(opts.envFile)
				if err != nil {
					return nil, err
				}
				return describe(opts.input(cfg)), nil
			})
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		roles   []string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.envFile)
			if err != nil {
				return err
			}
			if ttl <= 0 || ttl > cfg.JWTAccessTTL {
				ttl = cfg.JWTAccessTTL
			}
			if len(roles) == 0 {
				roles = service.AllRoles()
			}
			jwt := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
			token, err := jwt.SignAccessToken(subject, roles, scopes, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "seed-cli", "token subject")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "granted role (repeatable, default all)")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{service.ScopeRead, service.ScopeWrite}, "granted scope (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, capped at JWT_ACCESS_TTL")
	return cmd
}

func (o *options) input(cfg *config.Config) database.SeedInput {
	in := database.SeedInput{
		AdminName:     o.adminName,
		AdminEmail:    cfg.BootstrapAdminEmail,
		AdminPassword: cfg.BootstrapAdminPassword,
		DemoWorkout:   o.demoWorkout,
	}
	if o.adminEmail != "" {
		in.AdminEmail = o.adminEmail
	}
	if o.adminPassword != "" {
		in.AdminPassword = o.adminPassword
	}
	return in
}

func apply(ctx context.Context, db *gorm.DB, in database.SeedInput) ([]string, error) {
	if strings.TrimSpace(in.AdminEmail) == "" {
		return nil, fmt.Errorf("admin email is required: set BOOTSTRAP_ADMIN_EMAIL or --admin-email")
	}
	accountStore := repository.NewAccountStore(db)
	gate := service.NewClaimsGate()
	accounts := service.NewAccountService(accountStore, security.NewArgon2Hasher(), gate, nil)
	workouts := service.NewWorkoutService(repository.NewWorkoutStore(db), accountStore, gate, nil)

	report, err := database.Seed(ctx, accounts, workouts, in)
	if err != nil {
		return nil, err
	}
	if report.Noop {
		return []string{fmt.Sprintf("nothing to do, admin id=%d", report.AdminID)}, nil
	}
	return []string{
		fmt.Sprintf("admin id=%d", report.AdminID),
		fmt.Sprintf("created accounts=%d", report.CreatedAccounts),
		fmt.Sprintf("created workouts=%d", report.CreatedWorkouts),
	}, nil
}

func describe(in database.SeedInput) []string {
	email := strings.TrimSpace(strings.ToLower(in.AdminEmail))
	if email == "" {
		return []string{"no admin email configured, seeding would be a no-op"}
	}
	details := []string{"would ensure admin account: " + email}
	if in.DemoWorkout {
		details = append(details, fmt.Sprintf("would log a demo workout worth %d points if the admin has none", service.RewardPoints(45)))
	}
	return append(details, "no mutation executed in dry-run mode")
}

func loadConfig(envFile string) (*config.Config, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}
