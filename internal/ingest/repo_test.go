package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.XrplTransaction{}))
	return conn
}

func row(hash string, ledgerIndex uint32) *models.XrplTransaction {
	tag := uint32(20001)
	return &models.XrplTransaction{
		LedgerIndex:    ledgerIndex,
		Hash:           hash,
		CTID:           "C000006400010000",
		Account:        "rPayer",
		Destination:    merchantAccount,
		DestinationTag: &tag,
		CloseTime:      772000000,
		Meta:           json.RawMessage(`{}`),
		Tx:             json.RawMessage(`{}`),
	}
}

func TestMaxLedgerIndex(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	max, err := repo.MaxLedgerIndex(ctx, merchantAccount)
	require.NoError(t, err)
	require.Zero(t, max, "empty store should report zero")

	_, err = repo.InsertBatch(ctx, []*models.XrplTransaction{row("AA01", 100), row("AA02", 250)})
	require.NoError(t, err)

	max, err = repo.MaxLedgerIndex(ctx, merchantAccount)
	require.NoError(t, err)
	require.Equal(t, uint32(250), max)

	max, err = repo.MaxLedgerIndex(ctx, "rOtherAccount")
	require.NoError(t, err)
	require.Zero(t, max, "high-water mark is tracked per account")
}

func TestInsertBatchSkipsDuplicateHashes(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inserted, err := repo.InsertBatch(ctx, []*models.XrplTransaction{row("BB01", 100)})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted)

	inserted, err = repo.InsertBatch(ctx, []*models.XrplTransaction{row("BB01", 100), row("BB02", 101)})
	require.NoError(t, err)
	require.EqualValues(t, 1, inserted, "duplicate hash must be dropped silently")
}

func TestExistingHashes(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.InsertBatch(ctx, []*models.XrplTransaction{row("CC01", 100)})
	require.NoError(t, err)

	existing, err := repo.ExistingHashes(ctx, []string{"CC01", "CC02"})
	require.NoError(t, err)
	require.Contains(t, existing, "CC01")
	require.NotContains(t, existing, "CC02")

	existing, err = repo.ExistingHashes(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, existing)
}
