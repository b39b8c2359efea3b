package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gymchain/gymchain-api/internal/database"
	"github.com/gymchain/gymchain-api/internal/domain"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	in := database.SeedInput{AdminName: "Head Coach", AdminEmail: "Coach@Gym.Example", AdminPassword: "longenough", DemoWorkout: true}

	details, err := apply(ctx, db, in)
	require.NoError(t, err)
	require.Contains(t, details, "created accounts=1")
	require.Contains(t, details, "created workouts=1")

	details, err = apply(ctx, db, in)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Contains(t, details[0], "nothing to do")

	var workouts []domain.Workout
	require.NoError(t, db.Find(&workouts).Error)
	require.Len(t, workouts, 1)
	require.Equal(t, 40, workouts[0].TotalHPEarned)
}

func TestApplyRequiresAdminEmail(t *testing.T) {
	_, err := apply(context.Background(), newSQLiteDB(t), database.SeedInput{})
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	require.Equal(t, []string{"no admin email configured, seeding would be a no-op"}, describe(database.SeedInput{}))

	got := describe(database.SeedInput{AdminEmail: " Admin@Gym.Example ", DemoWorkout: true})
	require.Equal(t, "would ensure admin account: admin@gym.example", got[0])
	require.Contains(t, got[1], "40 points")
}
