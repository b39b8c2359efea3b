package database

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/config"
	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/repository"
	"github.com/gymchain/gymchain-api/internal/security"
	"github.com/gymchain/gymchain-api/internal/service"
)

func openSQLiteForTest(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(context.Background(), &config.Config{
		DatabaseDriver: DriverSQLite,
		DatabaseURL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{DatabaseDriver: "mysql", DatabaseURL: "x"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestPlanThenMigrate(t *testing.T) {
	ctx := context.Background()
	db := openSQLiteForTest(t)

	steps, err := Plan(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []string{"create table users", "create table workouts"}, steps)

	require.NoError(t, Migrate(ctx, db))
	steps, err = Plan(ctx, db)
	require.NoError(t, err)
	require.Empty(t, steps)

	require.NoError(t, db.Migrator().DropColumn(&domain.Workout{}, "total_hp_earned"))
	steps, err = Plan(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []string{"add column workouts.total_hp_earned"}, steps)
}

func newSeedServicesForTest(t *testing.T) (*service.AccountServiceImpl, *service.WorkoutServiceImpl) {
	t.Helper()
	db := openSQLiteForTest(t)
	require.NoError(t, Migrate(context.Background(), db))
	accountStore := repository.NewAccountStore(db)
	gate := service.NewClaimsGate()
	accounts := service.NewAccountService(accountStore, security.NewArgon2Hasher(), gate, nil)
	workouts := service.NewWorkoutService(repository.NewWorkoutStore(db), accountStore, gate, nil)
	return accounts, workouts
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	accounts, workouts := newSeedServicesForTest(t)
	in := SeedInput{AdminEmail: " Admin@Gym.test ", AdminPassword: "changeme123", DemoWorkout: true}

	first, err := Seed(ctx, accounts, workouts, in)
	require.NoError(t, err)
	require.Equal(t, 1, first.CreatedAccounts)
	require.Equal(t, 1, first.CreatedWorkouts)
	require.False(t, first.Noop)

	second, err := Seed(ctx, accounts, workouts, in)
	require.NoError(t, err)
	require.True(t, second.Noop)
	require.Equal(t, first.AdminID, second.AdminID)

	sys := security.WithClaims(ctx, security.SystemClaims(service.AllRoles()...))
	all, err := workouts.List(sys)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, first.AdminID, all[0].UserID)
	require.Equal(t, 40, all[0].TotalHPEarned)

	admin, err := accounts.Get(sys, first.AdminID)
	require.NoError(t, err)
	require.Equal(t, "admin@gym.test", admin.Email)
	require.True(t, strings.HasPrefix(admin.PasswordHash, "$argon2id$"))
}

func TestSeedWithoutAdminEmailIsNoop(t *testing.T) {
	accounts, workouts := newSeedServicesForTest(t)
	report, err := Seed(context.Background(), accounts, workouts, SeedInput{DemoWorkout: true})
	require.NoError(t, err)
	require.True(t, report.Noop)
}

func TestSeedRejectsWeakAdminPassword(t *testing.T) {
	accounts, workouts := newSeedServicesForTest(t)
	_, err := Seed(context.Background(), accounts, workouts, SeedInput{AdminEmail: "admin@gym.test", AdminPassword: "x"})
	require.ErrorIs(t, err, service.ErrAccountPasswordTooWeak)
}
