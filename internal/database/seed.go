package database

import (
	"context"
	"strings"
	"time"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

type SeedInput struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	DemoWorkout   bool
}

type SeedReport struct {
	AdminID         uint `json:"admin_id"`
	CreatedAccounts int  `json:"created_accounts"`
	CreatedWorkouts int  `json:"created_workouts"`
	Noop            bool `json:"noop"`
}

// Seed bootstraps an admin account and optionally one demo workout through the
// services, so seeded rows pass the same validation as API writes. Running it
// twice is a no-op.
func Seed(ctx context.Context, accounts service.AccountService, workouts service.WorkoutService, in SeedInput) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	report, err := seed(security.WithClaims(ctx, security.SystemClaims(service.AllRoles()...)), accounts, workouts, in)
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
		return nil, err
	}
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}

func seed(ctx context.Context, accounts service.AccountService, workouts service.WorkoutService, in SeedInput) (*SeedReport, error) {
	report := &SeedReport{}
	email := strings.TrimSpace(strings.ToLower(in.AdminEmail))
	if email == "" {
		report.Noop = true
		return report, nil
	}

	existing, err := accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	var admin *domain.Account
	for i := range existing {
		if existing[i].Email == email {
			admin = &existing[i]
			break
		}
	}
	if admin == nil {
		name := strings.TrimSpace(in.AdminName)
		if name == "" {
			name = "Gym Admin"
		}
		admin, err = accounts.Create(ctx, service.AccountInput{Name: name, Email: email, Password: in.AdminPassword})
		if err != nil {
			return nil, err
		}
		report.CreatedAccounts++
	}
	report.AdminID = admin.ID

	if in.DemoWorkout && admin.Active {
		all, err := workouts.List(ctx)
		if err != nil {
			return nil, err
		}
		hasWorkout := false
		for _, w := range all {
			if w.UserID == admin.ID {
				hasWorkout = true
				break
			}
		}
		if !hasWorkout {
			uid := admin.ID
			if _, err := workouts.Create(ctx, service.WorkoutInput{
				UserID:          &uid,
				Description:     "Demo session",
				WorkoutType:     "strength",
				DurationMinutes: 45,
			}); err != nil {
				return nil, err
			}
			report.CreatedWorkouts++
		}
	}

	report.Noop = report.CreatedAccounts == 0 && report.CreatedWorkouts == 0
	return report, nil
}
