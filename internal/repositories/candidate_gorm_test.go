package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/resume-ranker/internal/models"
)

func TestGormCandidateRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&models.CandidateRecord{}))
	require.NoError(t, db.AutoMigrate(&models.CandidateRecord{}))

	repo := NewGormCandidateRepository(db)
	ctx := context.Background()

	empty, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Append(ctx, sampleCandidate("Jane")))
	require.NoError(t, repo.Append(ctx, models.Candidate{Name: "John", FullText: "a\nb"}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, sampleCandidate("Jane"), loaded[0])
	assert.Equal(t, "John", loaded[1].Name)
	assert.Equal(t, models.NotFound, loaded[1].Email)
	assert.Equal(t, "a b", loaded[1].FullText)
}
