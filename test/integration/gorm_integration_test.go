package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/repository/specification"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, database.PoolConfig{})
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.VerificationRequestRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Document Round Trip", func(t *testing.T) {
		ctx := context.Background()
		doc := &entity.Document{
			Id:        uuid.New(),
			Title:     "integration-roundtrip.txt",
			MimeType:  "text/plain",
			Status:    entity.StatusPending,
			CreatedAt: time.Now(),
		}

		require.NoError(t, uow.DocumentRepository().Create(ctx, doc))
		defer uow.DocumentRepository().Delete(ctx, doc.Id)

		found, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, doc.Title, found.Title)
		assert.Equal(t, entity.StatusPending, found.Status)

		require.NoError(t, uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.StatusFailed, nil, "integration test"))
		found, err = uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, found.Status)
		assert.Equal(t, "integration test", found.ErrorMessage)
	})

	t.Run("Transaction Rollback", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))

		doc := &entity.Document{
			Id:       uuid.New(),
			Title:    "rolled-back.txt",
			MimeType: "text/plain",
			Status:   entity.StatusPending,
		}
		require.NoError(t, txUow.DocumentRepository().Create(ctx, doc))
		require.NoError(t, txUow.Rollback())

		found, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: doc.Id})
		require.NoError(t, err)
		assert.Nil(t, found, "rolled back document must not be visible")
	})
}
